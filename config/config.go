package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio         AudioConfig         `yaml:"audio"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Chat          ChatConfig          `yaml:"chat"`
	Speech        SpeechConfig        `yaml:"speech"`
	Storage       StorageConfig       `yaml:"storage"`
	Log           LogConfig           `yaml:"log"`
}

type AudioConfig struct {
	Source        string `yaml:"source"`
	HTTPAddr      string `yaml:"http_addr"`
	AuthToken     string `yaml:"auth_token"`
	RateLimit     int    `yaml:"rate_limit"`
	TrustProxy    bool   `yaml:"trust_proxy"`
	WatchDir      string `yaml:"watch_dir"`
	RecordingsDir string `yaml:"recordings_dir"`
	SampleRate    int    `yaml:"sample_rate"`
}

type TranscriptionConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
	FileMode string `yaml:"file_mode"`
}

type ChatConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type SpeechConfig struct {
	Enabled bool    `yaml:"enabled"`
	Engine  string  `yaml:"engine"`
	Voice   string  `yaml:"voice"`
	Rate    float64 `yaml:"rate"`
}

type StorageConfig struct {
	Path               string `yaml:"path"`
	EncryptCredentials bool   `yaml:"encrypt_credentials"`
	KeyFile            string `yaml:"key_file"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	SourceMicrophone = "microphone"
	SourceHTTP       = "http"
	SourceFile       = "file"
)

// Load reads an optional .env, then the YAML file at path with ${VAR} expansion.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Audio.Source {
	case SourceMicrophone, SourceHTTP, SourceFile:
	default:
		return fmt.Errorf("invalid audio.source %q", c.Audio.Source)
	}

	switch c.Transcription.FileMode {
	case "upload", "data_uri":
	default:
		return fmt.Errorf("invalid transcription.file_mode %q", c.Transcription.FileMode)
	}

	if c.Speech.Rate <= 0 {
		return fmt.Errorf("invalid speech.rate %v", c.Speech.Rate)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Audio.Source == "" {
		c.Audio.Source = SourceMicrophone
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.RateLimit == 0 {
		c.Audio.RateLimit = 30
	}
	if c.Audio.WatchDir == "" {
		c.Audio.WatchDir = "./audio"
	}
	if c.Audio.RecordingsDir == "" {
		c.Audio.RecordingsDir = "./recordings"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Transcription.Language == "" {
		c.Transcription.Language = "german"
	}
	if c.Transcription.FileMode == "" {
		// raw WAV part; "data_uri" inlines it as base64 instead
		c.Transcription.FileMode = "upload"
	}
	if c.Chat.Model == "" {
		c.Chat.Model = "deepseek/deepseek-chat"
	}
	if c.Speech.Engine == "" {
		c.Speech.Engine = "auto"
	}
	if c.Speech.Rate == 0 {
		c.Speech.Rate = 1.8
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(defaultDataDir(), "voicechat.db")
	}
	if c.Storage.KeyFile == "" {
		c.Storage.KeyFile = filepath.Join(filepath.Dir(c.Storage.Path), "credentials.key")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "voicechat")
}
