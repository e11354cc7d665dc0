package sys

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config key names. They double as environment variable names.
const (
	KeyToken             = "DISCORD_TOKEN"
	KeyGuildID           = "GUILD_ID"
	KeySilent            = "SILENT"
	KeyLogFile           = "LOG_FILE"
	KeyCookiesPath       = "COOKIES_PATH"
	KeyYoutubeProxy      = "YOUTUBE_PROXY"
	KeyMaxSearchResults  = "MAX_SEARCH_RESULTS"
	KeyDefaultVolume     = "DEFAULT_VOLUME"
	KeyMaxQueueDisplay   = "MAX_QUEUE_DISPLAY"
	KeyMaxAttempts       = "MAX_ATTEMPTS"
	KeyStatusAddr        = "STATUS_ADDR"
	KeyIdleTimeout       = "IDLE_TIMEOUT"
	KeyRandomizePersonas = "RANDOMIZE_PERSONAS"
)

// Settings is the process-wide viper instance. Command-line flags are bound
// onto it before LoadConfig runs.
var Settings = viper.New()

func init() {
	Settings.SetDefault(KeySilent, false)
	Settings.SetDefault(KeyMaxSearchResults, 5)
	Settings.SetDefault(KeyDefaultVolume, 0.5)
	Settings.SetDefault(KeyMaxQueueDisplay, 10)
	Settings.SetDefault(KeyMaxAttempts, 3)
	Settings.SetDefault(KeyStatusAddr, ":5000")
	Settings.SetDefault(KeyIdleTimeout, time.Minute)
	Settings.SetDefault(KeyRandomizePersonas, false)
	Settings.AutomaticEnv()
}

type Config struct {
	Token             string
	GuildID           string
	Silent            bool
	LogFile           string
	CookiesPath       string
	YoutubeProxy      string
	MaxSearchResults  int
	DefaultVolume     float64
	MaxQueueDisplay   int
	MaxAttempts       int
	StatusAddr        string
	IdleTimeout       time.Duration
	RandomizePersonas bool
}

var GlobalConfig *Config

// Validate ensures the configuration is usable. requireToken is false for
// the offline diagnostic commands.
func (c *Config) Validate(requireToken bool) error {
	if requireToken && c.Token == "" {
		return errors.New(MsgConfigMissingToken)
	}
	if c.GuildID != "" && (len(c.GuildID) < 17 || len(c.GuildID) > 20) {
		return errors.New("invalid GUILD_ID: must be a valid Snowflake")
	}
	if c.DefaultVolume < 0 || c.DefaultVolume > 1 {
		return fmt.Errorf(MsgConfigBadVolume, c.DefaultVolume)
	}
	if c.MaxSearchResults < 1 {
		c.MaxSearchResults = 1
	}
	if c.MaxQueueDisplay < 1 {
		c.MaxQueueDisplay = 1
	}
	return nil
}

// LoadConfig reads .env, then resolves every key through Settings.
func LoadConfig(requireToken bool) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Token:             Settings.GetString(KeyToken),
		GuildID:           Settings.GetString(KeyGuildID),
		Silent:            Settings.GetBool(KeySilent),
		LogFile:           Settings.GetString(KeyLogFile),
		CookiesPath:       Settings.GetString(KeyCookiesPath),
		YoutubeProxy:      Settings.GetString(KeyYoutubeProxy),
		MaxSearchResults:  Settings.GetInt(KeyMaxSearchResults),
		DefaultVolume:     Settings.GetFloat64(KeyDefaultVolume),
		MaxQueueDisplay:   Settings.GetInt(KeyMaxQueueDisplay),
		MaxAttempts:       Settings.GetInt(KeyMaxAttempts),
		StatusAddr:        Settings.GetString(KeyStatusAddr),
		IdleTimeout:       Settings.GetDuration(KeyIdleTimeout),
		RandomizePersonas: Settings.GetBool(KeyRandomizePersonas),
	}

	if err := cfg.Validate(requireToken); err != nil {
		return nil, err
	}

	GlobalConfig = cfg
	return cfg, nil
}
