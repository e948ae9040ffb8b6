package core

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/trovekit/trove/pkg/models"
)

// ConfigurationManager loads and validates the global .troverc
// configuration file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(config *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// searchPaths are the directories checked for a .troverc file, in
	// precedence order.
	searchPaths []string
}

// NewConfigurationManager creates a ConfigurationManager that looks for
// .troverc in the given directories, first match winning.
func NewConfigurationManager(searchPaths ...string) ConfigurationManager {
	return &viperConfigManager{searchPaths: searchPaths}
}

// defaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func defaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		DefaultWorkspace:  "",
		DefaultImportType: string(models.TypeResource),
		WarmCache:         true,
	}
}

// LoadGlobalConfig reads the .troverc file from the search paths using
// Viper. If no file exists, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := defaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(".troverc")
	v.SetConfigType("yaml")
	for _, p := range cm.searchPaths {
		v.AddConfigPath(p)
	}

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("default_workspace", cfg.DefaultWorkspace)
	v.SetDefault("default_import_type", cfg.DefaultImportType)
	v.SetDefault("warm_cache", cfg.WarmCache)
	v.SetDefault("notifications.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found; return defaults.
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .troverc: %w", err)
	}

	cfg.DefaultWorkspace = v.GetString("default_workspace")
	cfg.DefaultImportType = v.GetString("default_import_type")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")

	// Use IsSet to distinguish "not set" (keep the default true) from
	// "explicitly set to false".
	if v.IsSet("warm_cache") {
		cfg.WarmCache = v.GetBool("warm_cache")
	}

	cfg.Alerts.FailureCount = v.GetInt("alerts.failure_count")
	cfg.Alerts.FailureWindowHrs = v.GetInt("alerts.failure_window_hours")
	cfg.Alerts.WarningCount = v.GetInt("alerts.warning_count")
	cfg.Alerts.TransientMaxDays = v.GetInt("alerts.transient_max_days")
	cfg.Alerts.MaxEventLogEvents = v.GetInt("alerts.max_event_log_events")

	return cfg, nil
}

// ValidateConfig checks the provided configuration for invalid values and
// returns a clear error message identifying the problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.DefaultImportType != "" {
		if _, ok := models.ParseItemType(cfg.DefaultImportType); !ok {
			errs = append(errs, fmt.Sprintf(
				"default_import_type %q is invalid, must be one of: %s",
				cfg.DefaultImportType, joinItemTypes(),
			))
		}
	}

	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.enabled is true but notifications.slack.webhook_url is empty")
	}
	if url := cfg.Notifications.Slack.WebhookURL; url != "" && !strings.HasPrefix(url, "https://") {
		errs = append(errs, fmt.Sprintf("notifications.slack.webhook_url %q must use https", url))
	}

	if cfg.Alerts.FailureCount < 0 {
		errs = append(errs, fmt.Sprintf("alerts.failure_count must be non-negative, got %d", cfg.Alerts.FailureCount))
	}
	if cfg.Alerts.FailureWindowHrs < 0 {
		errs = append(errs, fmt.Sprintf("alerts.failure_window_hours must be non-negative, got %d", cfg.Alerts.FailureWindowHrs))
	}
	if cfg.Alerts.TransientMaxDays < 0 {
		errs = append(errs, fmt.Sprintf("alerts.transient_max_days must be non-negative, got %d", cfg.Alerts.TransientMaxDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("global config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func joinItemTypes() string {
	names := make([]string, len(models.ItemTypes))
	for i, t := range models.ItemTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
