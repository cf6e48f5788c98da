// Package config_test tests configuration loading and validation.
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdmsharpe/discord-grok/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
discord:
  token: "discord-token"
xai:
  api_key: "xai-key"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "discord-token", cfg.Discord.Token)
	assert.Equal(t, "xai-key", cfg.XAI.APIKey)

	assert.Equal(t, config.DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, config.DefaultXAIBaseURL, cfg.XAI.BaseURL)
	assert.Equal(t, config.DefaultXAIMaxRetries, cfg.XAI.MaxRetries)
	assert.Equal(t, config.DefaultXAIRequestTimeout, cfg.XAI.RequestTimeout)
	assert.Equal(t, config.DefaultVideoPollInterval, cfg.XAI.VideoPollInterval)
	assert.Equal(t, config.DefaultTypingInterval, cfg.Bot.TypingInterval)
	assert.Equal(t, config.DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, config.DefaultTranscriptRetentionDays, cfg.Database.TranscriptRetentionDays)
	assert.Equal(t, config.DefaultMessages, cfg.Bot.Messages)

	require.Contains(t, cfg.Scheduler.Tasks, "sql_maintenance")
	assert.True(t, cfg.Scheduler.Tasks["sql_maintenance"].Enabled)
	require.Contains(t, cfg.Scheduler.Tasks, "transcript_prune")
	assert.NotEmpty(t, cfg.Scheduler.Tasks["transcript_prune"].Schedule)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  json: true
discord:
  token: "discord-token"
  guild_ids: ["123", "456"]
xai:
  api_key: "xai-key"
  base_url: "https://example.test/v1"
  max_retries: 5
  request_timeout: 2m
bot:
  typing_interval: 8s
  messages:
    no_conversation: "nothing here"
database:
  path: "custom.db"
  transcript_retention_days: 30
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, []string{"123", "456"}, cfg.Discord.GuildIDs)
	assert.Equal(t, "https://example.test/v1", cfg.XAI.BaseURL)
	assert.Equal(t, 5, cfg.XAI.MaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.XAI.RequestTimeout)
	assert.Equal(t, 8*time.Second, cfg.Bot.TypingInterval)
	assert.Equal(t, "nothing here", cfg.Bot.Messages.NoConversation)
	assert.Equal(t, config.DefaultMessages.NotOwner, cfg.Bot.Messages.NotOwner)
	assert.Equal(t, "custom.db", cfg.Database.Path)
	assert.Equal(t, 30, cfg.Database.TranscriptRetentionDays)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{
			name: "missing discord token",
			contents: `
xai:
  api_key: "xai-key"
`,
		},
		{
			name: "missing xai api key",
			contents: `
discord:
  token: "discord-token"
`,
		},
		{
			name: "invalid log level",
			contents: `
log:
  level: loud
discord:
  token: "discord-token"
xai:
  api_key: "xai-key"
`,
		},
		{
			name: "retries out of range",
			contents: `
discord:
  token: "discord-token"
xai:
  api_key: "xai-key"
  max_retries: 99
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			_, err := config.LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GROK_DISCORD_TOKEN", "env-token")
	t.Setenv("GROK_XAI_API_KEY", "env-key")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Discord.Token)
	assert.Equal(t, "env-key", cfg.XAI.APIKey)
}
