package models

// SlackConfig holds Slack webhook settings for notifications.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationConfig controls where triggered alerts are delivered.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// AlertConfig holds alert threshold overrides. Zero values mean
// "use the built-in default".
type AlertConfig struct {
	FailureCount      int `yaml:"failure_count" mapstructure:"failure_count"`
	FailureWindowHrs  int `yaml:"failure_window_hours" mapstructure:"failure_window_hours"`
	WarningCount      int `yaml:"warning_count" mapstructure:"warning_count"`
	TransientMaxDays  int `yaml:"transient_max_days" mapstructure:"transient_max_days"`
	MaxEventLogEvents int `yaml:"max_event_log_events" mapstructure:"max_event_log_events"`
}

// GlobalConfig holds settings read from the .troverc file via Viper.
type GlobalConfig struct {
	// DefaultWorkspace is the workspace directory used when the current
	// directory tree holds no workspace.
	DefaultWorkspace string `yaml:"default_workspace" mapstructure:"default_workspace"`

	// DefaultImportType is the item type assigned to imports when none
	// is given.
	DefaultImportType string `yaml:"default_import_type" mapstructure:"default_import_type"`

	// WarmCache enables the background item cache warmer on startup.
	WarmCache bool `yaml:"warm_cache" mapstructure:"warm_cache"`

	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
	Alerts        AlertConfig        `yaml:"alerts" mapstructure:"alerts"`
}
