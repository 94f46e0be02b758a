package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderUnison   = "unison"
	ProviderDeepgram = "deepgram"
	ProviderOpenAI   = "openai"
)

// Config stores runtime configuration for the recorder.
type Config struct {
	Upload    UploadConfig    `yaml:"upload"`
	Deepgram  DeepgramConfig  `yaml:"deepgram"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Audio     AudioConfig     `yaml:"audio"`
	Session   SessionConfig   `yaml:"session"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type UploadConfig struct {
	Provider  string        `yaml:"provider"`
	Endpoint  string        `yaml:"endpoint"`
	Name      string        `yaml:"name"`
	Email     string        `yaml:"email"`
	Field     string        `yaml:"field"`
	FileName  string        `yaml:"file_name"`
	TimeoutMS int           `yaml:"timeout_ms"`
	Timeout   time.Duration `yaml:"-"`
}

type DeepgramConfig struct {
	APIKey      string `yaml:"api_key"`
	APIBaseURL  string `yaml:"api_base"`
	Model       string `yaml:"model"`
	Language    string `yaml:"language"`
	SmartFormat bool   `yaml:"smart_format"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
}

type AudioConfig struct {
	RecorderCommand string `yaml:"recorder_command"`
	InputFormat     string `yaml:"input_format"`
	InputDevice     string `yaml:"input_device"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	Codec           string `yaml:"codec"`
	Container       string `yaml:"container"`
	MimeType        string `yaml:"mime_type"`
}

type SessionConfig struct {
	ChunkSize int `yaml:"chunk_size"`
}

type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	TraceStdout bool   `yaml:"trace_stdout"`
}

var containerMimeTypes = map[string]string{
	"webm": "audio/webm",
	"ogg":  "audio/ogg",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
}

// Load resolves configuration from a .env file, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (Config, error) {
	envFile := envOrDefault("VOICEREC_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env file %q: %w", envFile, err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	cfg := defaults()

	explicit := strings.TrimSpace(os.Getenv("VOICEREC_CONFIG_FILE"))
	path := explicit
	if path == "" {
		path = filepath.Join(home, ".config", "voicerecorder", "config.yaml")
	}
	if err := loadFile(path, &cfg); err != nil {
		if explicit != "" || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := sanitize(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Upload: UploadConfig{
			Provider:  ProviderUnison,
			Endpoint:  "https://eventnub.onrender.com/api/music-unison/transcribe-audio",
			Name:      "John",
			Email:     "john@gmail.com",
			Field:     "audio",
			FileName:  "recorded_audio",
			TimeoutMS: 0,
		},
		Deepgram: DeepgramConfig{
			APIBaseURL:  "https://api.deepgram.com/v1",
			Model:       "nova-2",
			SmartFormat: true,
		},
		OpenAI: OpenAIConfig{
			Model: "whisper-1",
		},
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      48000,
			Channels:        1,
			Codec:           "libopus",
			Container:       "webm",
		},
		Session: SessionConfig{
			ChunkSize: 4096,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voicerecorder",
			LogLevel:    "info",
			LogFormat:   "text",
		},
	}
}

func loadFile(path string, cfg *Config) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Upload.Provider = strings.ToLower(envOrDefault("VOICEREC_PROVIDER", cfg.Upload.Provider))
	cfg.Upload.Endpoint = envOrDefault("VOICEREC_UPLOAD_ENDPOINT", cfg.Upload.Endpoint)
	cfg.Upload.Name = envOrDefault("VOICEREC_SUBMITTER_NAME", cfg.Upload.Name)
	cfg.Upload.Email = envOrDefault("VOICEREC_SUBMITTER_EMAIL", cfg.Upload.Email)
	cfg.Upload.Field = envOrDefault("VOICEREC_UPLOAD_FIELD", cfg.Upload.Field)
	cfg.Upload.FileName = envOrDefault("VOICEREC_UPLOAD_FILENAME", cfg.Upload.FileName)
	cfg.Upload.TimeoutMS = firstNonNegativeInt("VOICEREC_UPLOAD_TIMEOUT_MS", cfg.Upload.TimeoutMS)

	cfg.Deepgram.APIKey = envOrDefault("DEEPGRAM_API_KEY", cfg.Deepgram.APIKey)
	cfg.Deepgram.APIBaseURL = envOrDefault("DEEPGRAM_API_BASE", cfg.Deepgram.APIBaseURL)
	cfg.Deepgram.Model = envOrDefault("DEEPGRAM_MODEL", cfg.Deepgram.Model)
	cfg.Deepgram.Language = envOrDefault("DEEPGRAM_LANGUAGE", cfg.Deepgram.Language)
	cfg.Deepgram.SmartFormat = envOrDefaultBool("DEEPGRAM_SMART_FORMAT", cfg.Deepgram.SmartFormat)

	cfg.OpenAI.APIKey = envOrDefault("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.BaseURL = envOrDefault("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.OpenAI.Model = envOrDefault("OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.Language = envOrDefault("OPENAI_LANGUAGE", cfg.OpenAI.Language)

	cfg.Audio.RecorderCommand = envOrDefault("VOICEREC_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = envOrDefault("VOICEREC_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = firstNonEmpty(os.Getenv("VOICEREC_AUDIO_INPUT_DEVICE"), os.Getenv("PULSE_SOURCE"), cfg.Audio.InputDevice)
	cfg.Audio.SampleRate = envOrDefaultInt("VOICEREC_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("VOICEREC_CHANNELS", cfg.Audio.Channels)
	cfg.Audio.Codec = envOrDefault("VOICEREC_AUDIO_CODEC", cfg.Audio.Codec)
	cfg.Audio.Container = envOrDefault("VOICEREC_AUDIO_CONTAINER", cfg.Audio.Container)
	cfg.Audio.MimeType = envOrDefault("VOICEREC_AUDIO_MIME_TYPE", cfg.Audio.MimeType)

	cfg.Session.ChunkSize = envOrDefaultInt("VOICEREC_AUDIO_CHUNK_SIZE", cfg.Session.ChunkSize)

	cfg.Telemetry.ServiceName = envOrDefault("VOICEREC_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.LogLevel = envOrDefault("VOICEREC_LOG_LEVEL", cfg.Telemetry.LogLevel)
	cfg.Telemetry.LogFormat = envOrDefault("VOICEREC_LOG_FORMAT", cfg.Telemetry.LogFormat)
	cfg.Telemetry.TraceStdout = envOrDefaultBool("VOICEREC_TRACE_STDOUT", cfg.Telemetry.TraceStdout)
}

func sanitize(cfg *Config) error {
	switch cfg.Upload.Provider {
	case ProviderUnison, ProviderDeepgram, ProviderOpenAI:
	case "":
		cfg.Upload.Provider = ProviderUnison
	default:
		return fmt.Errorf("unsupported upload provider %q", cfg.Upload.Provider)
	}
	if cfg.Upload.TimeoutMS < 0 {
		cfg.Upload.TimeoutMS = 0
	}
	cfg.Upload.Timeout = time.Duration(cfg.Upload.TimeoutMS) * time.Millisecond

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 48000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.Container == "" {
		cfg.Audio.Container = "webm"
	}
	if cfg.Audio.MimeType == "" {
		cfg.Audio.MimeType = firstNonEmpty(containerMimeTypes[cfg.Audio.Container], "audio/webm")
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func firstNonNegativeInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
