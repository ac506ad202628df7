package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeMPD()
	c.normalizePlayer()
	c.normalizeCommentary()
	c.normalizeSpeech()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeStorage() error {
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = defaultDataDir
	}
	var err error
	if c.Storage.DataDir, err = expandPath(c.Storage.DataDir); err != nil {
		return fmt.Errorf("storage.data_dir: %w", err)
	}
	if c.Storage.RetentionDays < 0 {
		c.Storage.RetentionDays = 0
	}
	return nil
}

func (c *Config) normalizeMPD() {
	c.MPD.Address = strings.TrimSpace(c.MPD.Address)
	if c.MPD.Address == "" {
		// MPD_HOST/MPD_PORT are the conventions mpc and friends honor.
		if host, ok := os.LookupEnv("MPD_HOST"); ok && strings.TrimSpace(host) != "" {
			host = strings.TrimSpace(host)
			if strings.HasPrefix(host, "/") {
				c.MPD.Address = host
			} else {
				port := "6600"
				if value, ok := os.LookupEnv("MPD_PORT"); ok && strings.TrimSpace(value) != "" {
					port = strings.TrimSpace(value)
				}
				c.MPD.Address = host + ":" + port
			}
		} else {
			c.MPD.Address = defaultMPDAddress
		}
	}
	c.MPD.Password = strings.TrimSpace(c.MPD.Password)
	if c.MPD.TimeoutSeconds <= 0 {
		c.MPD.TimeoutSeconds = defaultMPDTimeoutSeconds
	}
}

func (c *Config) normalizePlayer() {
	c.Player.Command = strings.TrimSpace(c.Player.Command)
	if c.Player.Command == "" {
		c.Player.Command = defaultPlayerCommand
	}
	args := make([]string, 0, len(c.Player.ExtraArgs))
	for _, arg := range c.Player.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Player.ExtraArgs = args
}

func (c *Config) normalizeCommentary() {
	c.Commentary.APIKey = strings.TrimSpace(c.Commentary.APIKey)
	if c.Commentary.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Commentary.APIKey = strings.TrimSpace(value)
		}
	}
	c.Commentary.BaseURL = strings.TrimSpace(c.Commentary.BaseURL)
	if c.Commentary.BaseURL == "" {
		c.Commentary.BaseURL = defaultCommentaryBaseURL
	}
	c.Commentary.Model = strings.TrimSpace(c.Commentary.Model)
	if c.Commentary.Model == "" {
		c.Commentary.Model = defaultCommentaryModel
	}
	c.Commentary.Referer = strings.TrimSpace(c.Commentary.Referer)
	c.Commentary.Title = strings.TrimSpace(c.Commentary.Title)
	if c.Commentary.Title == "" {
		c.Commentary.Title = defaultCommentaryTitle
	}
	if c.Commentary.HistoryLimit < 0 {
		c.Commentary.HistoryLimit = 0
	}
	if c.Commentary.TimeoutSeconds <= 0 {
		c.Commentary.TimeoutSeconds = defaultCommentaryTimeout
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Speech.APIKey = strings.TrimSpace(value)
		}
	}
	c.Speech.BaseURL = strings.TrimSpace(c.Speech.BaseURL)
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.Model = strings.TrimSpace(c.Speech.Model)
	if c.Speech.Model == "" {
		c.Speech.Model = defaultSpeechModel
	}
	c.Speech.Voice = strings.TrimSpace(c.Speech.Voice)
	if c.Speech.Voice == "" {
		c.Speech.Voice = defaultSpeechVoice
	}
	c.Speech.Format = strings.ToLower(strings.TrimSpace(c.Speech.Format))
	if c.Speech.Format == "" {
		c.Speech.Format = defaultSpeechFormat
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.Method = strings.ToLower(strings.TrimSpace(c.Notifications.Method))
	if c.Notifications.Method == "" {
		c.Notifications.Method = defaultNotificationMethod
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
