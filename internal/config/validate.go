package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. API keys are deliberately not
// required here: the daemon degrades per announcement cycle when they are
// missing, and control commands must keep working on an unconfigured system.
func (c *Config) Validate() error {
	if err := c.validateMPD(); err != nil {
		return err
	}
	if err := c.validatePlayer(); err != nil {
		return err
	}
	if err := c.validateFade(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateCommentary(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMPD() error {
	if strings.TrimSpace(c.MPD.Address) == "" {
		return errors.New("mpd.address must be set")
	}
	if c.MPD.TimeoutSeconds <= 0 {
		return errors.New("mpd.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePlayer() error {
	if strings.TrimSpace(c.Player.Command) == "" {
		return errors.New("player.command must be set")
	}
	return nil
}

func (c *Config) validateFade() error {
	if c.Fade.DipLevel < 0 || c.Fade.DipLevel > 100 {
		return errors.New("fade.dip_level must be between 0 and 100")
	}
	if c.Fade.DurationMs <= 0 {
		return errors.New("fade.duration_ms must be positive")
	}
	if c.Fade.Steps < 1 {
		return errors.New("fade.steps must be at least 1")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.PollIntervalSeconds < 1 {
		return errors.New("watch.poll_interval_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateSpeech() error {
	switch c.Speech.Format {
	case "mp3", "opus", "aac", "flac", "wav":
	default:
		return fmt.Errorf("speech.format: unsupported value %q", c.Speech.Format)
	}
	if c.Speech.Volume < 0 || c.Speech.Volume > 100 {
		return errors.New("speech.volume must be between 0 and 100")
	}
	if c.Speech.TimeoutSeconds <= 0 {
		return errors.New("speech.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateCommentary() error {
	if c.Commentary.Temperature < 0 || c.Commentary.Temperature > 2 {
		return errors.New("commentary.temperature must be between 0 and 2")
	}
	if c.Commentary.TimeoutSeconds <= 0 {
		return errors.New("commentary.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	switch c.Notifications.Method {
	case "desktop", "ntfy", "none":
	default:
		return fmt.Errorf("notifications.method: unsupported value %q", c.Notifications.Method)
	}
	if c.Notifications.Method == "ntfy" && c.Notifications.NtfyTopic == "" {
		return errors.New("notifications.ntfy_topic must be set when notifications.method is \"ntfy\"")
	}
	return nil
}
