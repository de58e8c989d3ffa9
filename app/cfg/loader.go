package cfg

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	if Version != "" {
		return Version
	}
	return "unknown"
}

const (
	MinPollInterval = 5
	MaxPollInterval = 60
)

type rawCfg struct {
	// Telegraph feed configuration
	TelegraphURL     string `long:"telegraph-url" env:"TELEGRAPH_URL" required:"true" description:"Telegraph feed endpoint URL"`
	TelegraphChannel string `long:"telegraph-channel" env:"TELEGRAPH_CHANNEL" default:"kuaixun" description:"Telegraph feed channel identifier"`
	PageSize         int    `long:"page-size" env:"PAGE_SIZE" default:"20" description:"Number of items requested per telegraph page"`
	PollInterval     int    `long:"poll-interval" env:"POLL_INTERVAL" default:"30" description:"Telegraph poll interval in seconds (clamped to 5-60)"`

	// Application configuration
	SourcesDir   string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing RSS watch source configuration files"`
	SettingsFile string `long:"settings-file" env:"SETTINGS_FILE" default:"./watch.yml" description:"Alert settings file (keywords, sounds, broadcast toggles)"`
	DBPath       string `long:"db-path" env:"DB_PATH" default:"./newswatch.db" description:"SQLite database path"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://watch.example.com)"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for task processing"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Announcement configuration
	TelegramToken  string `long:"telegram-token" env:"TELEGRAM_TOKEN" description:"Telegram bot token for outbound notifications (optional)"`
	TelegramChatID string `long:"telegram-chat-id" env:"TELEGRAM_CHAT_ID" description:"Telegram chat or channel ID for outbound notifications"`
	SpeechCommand  string `long:"speech-command" env:"SPEECH_COMMAND" description:"Text-to-speech command (e.g., say, espeak-ng); empty disables speech"`
	PlayerCommand  string `long:"player-command" env:"PLAYER_COMMAND" description:"Sound player command (e.g., afplay, paplay); empty disables sounds"`
	SoundsDir      string `long:"sounds-dir" env:"SOUNDS_DIR" default:"./sounds" description:"Directory containing alert sound files"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"newswatch/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Shanghai" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		TelegraphURL:     raw.TelegraphURL,
		TelegraphChannel: raw.TelegraphChannel,
		PageSize:         raw.PageSize,
		PollInterval:     ClampPollInterval(raw.PollInterval),
		SourcesDir:       raw.SourcesDir,
		SettingsFile:     raw.SettingsFile,
		DBPath:           raw.DBPath,
		Port:             raw.Port,
		BaseUrl:          raw.BaseUrl,
		WorkerCount:      raw.WorkerCount,
		APIAccessKey:     raw.APIAccessKey,
		TelegramToken:    raw.TelegramToken,
		TelegramChatID:   raw.TelegramChatID,
		SpeechCommand:    raw.SpeechCommand,
		PlayerCommand:    raw.PlayerCommand,
		SoundsDir:        raw.SoundsDir,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// ClampPollInterval keeps the telegraph poll interval inside the supported
// 5-60 second window.
func ClampPollInterval(seconds int) int {
	if seconds < MinPollInterval {
		return MinPollInterval
	}
	if seconds > MaxPollInterval {
		return MaxPollInterval
	}
	return seconds
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
