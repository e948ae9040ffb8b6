package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trovekit/trove/pkg/models"
)

// --- Helper ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// --- LoadGlobalConfig tests ---

func TestLoadGlobalConfig_Defaults_WhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigurationManager(dir)

	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultWorkspace != "" {
		t.Errorf("DefaultWorkspace = %q, want empty", cfg.DefaultWorkspace)
	}
	if cfg.DefaultImportType != string(models.TypeResource) {
		t.Errorf("DefaultImportType = %q, want %q", cfg.DefaultImportType, models.TypeResource)
	}
	if !cfg.WarmCache {
		t.Error("WarmCache = false, want true by default")
	}
	if cfg.Notifications.Enabled {
		t.Error("Notifications.Enabled = true, want false by default")
	}
}

func TestLoadGlobalConfig_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".troverc", `
default_workspace: /data/research
default_import_type: note
warm_cache: false
notifications:
  enabled: true
  slack:
    webhook_url: https://hooks.slack.com/services/T0/B0/xyz
alerts:
  failure_count: 5
  transient_max_days: 14
`)
	cm := NewConfigurationManager(dir)

	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultWorkspace != "/data/research" {
		t.Errorf("DefaultWorkspace = %q, want /data/research", cfg.DefaultWorkspace)
	}
	if cfg.DefaultImportType != "note" {
		t.Errorf("DefaultImportType = %q, want note", cfg.DefaultImportType)
	}
	if cfg.WarmCache {
		t.Error("WarmCache = true, want false (explicitly disabled)")
	}
	if !cfg.Notifications.Enabled {
		t.Error("Notifications.Enabled = false, want true")
	}
	if cfg.Notifications.Slack.WebhookURL != "https://hooks.slack.com/services/T0/B0/xyz" {
		t.Errorf("WebhookURL = %q", cfg.Notifications.Slack.WebhookURL)
	}
	if cfg.Alerts.FailureCount != 5 {
		t.Errorf("Alerts.FailureCount = %d, want 5", cfg.Alerts.FailureCount)
	}
	if cfg.Alerts.TransientMaxDays != 14 {
		t.Errorf("Alerts.TransientMaxDays = %d, want 14", cfg.Alerts.TransientMaxDays)
	}
}

func TestLoadGlobalConfig_FirstSearchPathWins(t *testing.T) {
	wsDir := t.TempDir()
	homeDir := t.TempDir()
	writeFile(t, wsDir, ".troverc", "default_import_type: note\n")
	writeFile(t, homeDir, ".troverc", "default_import_type: doc\n")

	cm := NewConfigurationManager(wsDir, homeDir)
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultImportType != "note" {
		t.Errorf("DefaultImportType = %q, want note (workspace file wins)", cfg.DefaultImportType)
	}
}

func TestLoadGlobalConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".troverc", "default_workspace: [unclosed\n")

	cm := NewConfigurationManager(dir)
	if _, err := cm.LoadGlobalConfig(); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

// --- ValidateConfig tests ---

func TestValidateConfig_Valid(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := &models.GlobalConfig{
		DefaultImportType: "note",
		Notifications: models.NotificationConfig{
			Enabled: true,
			Slack:   models.SlackConfig{WebhookURL: "https://hooks.slack.com/services/T0/B0/xyz"},
		},
	}

	if err := cm.ValidateConfig(cfg); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	if err := cm.ValidateConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestValidateConfig_BadImportType(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := &models.GlobalConfig{DefaultImportType: "widget"}

	err := cm.ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected error for unknown item type")
	}
	if !strings.Contains(err.Error(), "default_import_type") {
		t.Errorf("error should name the bad key, got: %v", err)
	}
}

func TestValidateConfig_NotificationsWithoutWebhook(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := &models.GlobalConfig{
		Notifications: models.NotificationConfig{Enabled: true},
	}

	if err := cm.ValidateConfig(cfg); err == nil {
		t.Error("expected error when notifications are enabled without a webhook")
	}
}

func TestValidateConfig_InsecureWebhook(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := &models.GlobalConfig{
		Notifications: models.NotificationConfig{
			Enabled: true,
			Slack:   models.SlackConfig{WebhookURL: "http://hooks.slack.com/services/T0/B0/xyz"},
		},
	}

	err := cm.ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected error for non-https webhook")
	}
	if !strings.Contains(err.Error(), "https") {
		t.Errorf("error should mention https, got: %v", err)
	}
}

func TestValidateConfig_CollectsMultipleErrors(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := &models.GlobalConfig{
		DefaultImportType: "widget",
		Alerts:            models.AlertConfig{FailureCount: -1, TransientMaxDays: -3},
	}

	err := cm.ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{"default_import_type", "failure_count", "transient_max_days"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}
