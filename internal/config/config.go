// Package config provides configuration loading, validation, and defaults
// for the discord-grok bot. Configuration is read from a YAML file with
// GROK_* environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	XAI       XAIConfig       `mapstructure:"xai"`
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DiscordConfig holds Discord connection settings. BotUser is populated at
// startup from the gateway and is not read from the file.
type DiscordConfig struct {
	Token    string   `mapstructure:"token" validate:"required"`
	GuildIDs []string `mapstructure:"guild_ids"`

	BotUser *discordgo.User `mapstructure:"-"`
}

// XAIConfig holds xAI API settings.
type XAIConfig struct {
	APIKey            string        `mapstructure:"api_key"  validate:"required"`
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"     validate:"min=1s,max=30m"`
	VideoPollInterval time.Duration `mapstructure:"video_poll_interval" validate:"min=1s,max=1m"`
}

// BotConfig holds behavior knobs and user-facing message templates.
type BotConfig struct {
	TypingInterval time.Duration `mapstructure:"typing_interval" validate:"min=1s,max=30s"`
	Messages       Messages      `mapstructure:"messages"`
}

// Messages are the user-facing strings sent by handlers. All have defaults
// and can be overridden from the config file.
type Messages struct {
	ConversationExists string `mapstructure:"conversation_exists"`
	NoConversation     string `mapstructure:"no_conversation"`
	NotOwner           string `mapstructure:"not_owner"`
	NotEnoughHistory   string `mapstructure:"not_enough_history"`
	RegenerateNotFound string `mapstructure:"regenerate_not_found"`
	RegenerateFailed   string `mapstructure:"regenerate_failed"`
	Regenerated        string `mapstructure:"regenerated"`
	ConversationEnded  string `mapstructure:"conversation_ended"`
	ToolsDisabled      string `mapstructure:"tools_disabled"`
	GeneralError       string `mapstructure:"general_error"`
	EmptyResponse      string `mapstructure:"empty_response"`
}

// DatabaseConfig holds transcript archive settings.
type DatabaseConfig struct {
	Path                    string `mapstructure:"path" validate:"required"`
	TranscriptRetentionDays int    `mapstructure:"transcript_retention_days" validate:"min=1,max=3650"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// LoadConfig reads the YAML file at path, applies GROK_* environment
// overrides and defaults, and validates the result. A missing file is not an
// error; defaults plus environment must then satisfy validation.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("GROK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
