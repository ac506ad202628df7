package config

const (
	defaultConfigLocation       = "~/.config/liner/config.toml"
	defaultDataDir              = "~/.local/share/liner"
	defaultMPDAddress           = "127.0.0.1:6600"
	defaultMPDTimeoutSeconds    = 5
	defaultPlayerCommand        = "mpv"
	defaultCommentaryBaseURL    = "https://openrouter.ai/api/v1"
	defaultCommentaryModel      = "google/gemini-3-flash-preview"
	defaultCommentaryTitle      = "Liner"
	defaultCommentaryTimeout    = 60
	defaultCommentaryHistory    = 5
	defaultCommentaryTemp       = 0.8
	defaultSpeechBaseURL        = "https://api.openai.com/v1"
	defaultSpeechModel          = "gpt-4o-mini-tts"
	defaultSpeechVoice          = "alloy"
	defaultSpeechFormat         = "mp3"
	defaultSpeechVolume         = 100
	defaultSpeechTimeout        = 60
	defaultFadeDipLevel         = 20
	defaultFadeDurationMs       = 300
	defaultFadeSteps            = 10
	defaultPollIntervalSeconds  = 1
	defaultNotificationMethod   = "desktop"
	defaultNotifyRequestTimeout = 10
	defaultRetentionDays        = 90
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		MPD: MPD{
			Address:        defaultMPDAddress,
			TimeoutSeconds: defaultMPDTimeoutSeconds,
		},
		Player: Player{
			Command:   defaultPlayerCommand,
			ExtraArgs: []string{"--no-video", "--really-quiet"},
		},
		Commentary: Commentary{
			BaseURL:        defaultCommentaryBaseURL,
			Model:          defaultCommentaryModel,
			Title:          defaultCommentaryTitle,
			Temperature:    defaultCommentaryTemp,
			HistoryLimit:   defaultCommentaryHistory,
			TimeoutSeconds: defaultCommentaryTimeout,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			Model:          defaultSpeechModel,
			Voice:          defaultSpeechVoice,
			Format:         defaultSpeechFormat,
			Volume:         defaultSpeechVolume,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Fade: Fade{
			DipLevel:   defaultFadeDipLevel,
			DurationMs: defaultFadeDurationMs,
			Steps:      defaultFadeSteps,
		},
		Watch: Watch{
			PollIntervalSeconds: defaultPollIntervalSeconds,
		},
		Notifications: Notifications{
			Method:         defaultNotificationMethod,
			RequestTimeout: defaultNotifyRequestTimeout,
			OnAnnounce:     true,
		},
		Storage: Storage{
			DataDir:       defaultDataDir,
			RetentionDays: defaultRetentionDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
