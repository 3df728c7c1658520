package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string       `yaml:"env" env-default:"local"`
	HTTP   HTTPConfig   `yaml:"http"`
	Room   RoomConfig   `yaml:"room"`
	Limits LimitsConfig `yaml:"limits"`
}

type HTTPConfig struct {
	Address   string `yaml:"address" env-default:""`
	StaticDir string `yaml:"static_dir" env-default:""`
}

// RoomConfig bounds the lifecycle of a single room. Durations are kept in
// milliseconds so they round-trip through yaml and env values unchanged.
type RoomConfig struct {
	Capacity          int `yaml:"capacity" env-default:"5"`
	HistoryLimit      int `yaml:"history_limit" env-default:"50"`
	ReconnectGraceMS  int `yaml:"reconnect_grace_ms" env-default:"5000"`
	ActionRateLimitMS int `yaml:"action_rate_limit_ms" env-default:"500"`
	ChatRateLimitMS   int `yaml:"chat_rate_limit_ms" env-default:"500"`
	KickCloseDelayMS  int `yaml:"kick_close_delay_ms" env-default:"500"`
}

// LimitsConfig caps inbound field sizes. Oversized values are truncated,
// not rejected, except the raw message size which produces an error event.
type LimitsConfig struct {
	MaxMessageBytes int `yaml:"max_message_bytes" env-default:"8192"`
	MaxUsername     int `yaml:"max_username" env-default:"15"`
	MaxPassword     int `yaml:"max_password" env-default:"50"`
	MaxRoomID       int `yaml:"max_room_id" env-default:"20"`
	MaxURL          int `yaml:"max_url" env-default:"2048"`
	MaxChatMessage  int `yaml:"max_chat_message" env-default:"300"`
	MaxPollQuestion int `yaml:"max_poll_question" env-default:"150"`
	MaxPollOption   int `yaml:"max_poll_option" env-default:"50"`
	MaxPollOptions  int `yaml:"max_poll_options" env-default:"5"`
	MaxSuperchat    int `yaml:"max_superchat" env-default:"150"`
}

func (c RoomConfig) ReconnectGrace() time.Duration {
	return time.Duration(c.ReconnectGraceMS) * time.Millisecond
}

func (c RoomConfig) ActionRateLimit() time.Duration {
	return time.Duration(c.ActionRateLimitMS) * time.Millisecond
}

func (c RoomConfig) ChatRateLimit() time.Duration {
	return time.Duration(c.ChatRateLimitMS) * time.Millisecond
}

func (c RoomConfig) KickCloseDelay() time.Duration {
	return time.Duration(c.KickCloseDelayMS) * time.Millisecond
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

// Default builds a config from env-default tags alone, without a file.
func Default() *Config {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read env config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":3000"
	}
}
