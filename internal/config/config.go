package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration derived from the environment, an
// optional .env file and an optional YAML/JSON config file.
type Config struct {
	APIHost       string
	APIPort       string
	MaxAudioBytes int64
	CORSOrigins   []string
	AuthSecret    string
	WorkerCount   int
	JobQueueSize  int
	JobTimeoutSec int
	StrictConfig  bool
	ConfigPath    string
	Store         StoreConfig
	Provider      ProviderConfig
	Archive       ArchiveConfig
	Inbox         InboxConfig
	Logging       LoggingConfig
}

// StoreConfig selects and locates the note store.
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	Path   string `json:"path" yaml:"path"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

// ProviderConfig configures the transcription provider adapter.
type ProviderConfig struct {
	Name         string        `json:"name" yaml:"name"`
	APIKey       string        `json:"-" yaml:"-"`
	BaseURL      string        `json:"base_url" yaml:"base_url"`
	Model        string        `json:"model" yaml:"model"`
	TimeoutSec   int           `json:"timeout_sec" yaml:"timeout_sec"`
	PollInterval time.Duration `json:"-" yaml:"-"`
}

// Timeout returns the per-request provider time limit.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// ArchiveConfig configures where raw audio is kept after transcription.
type ArchiveConfig struct {
	Kind            string `json:"kind" yaml:"kind"`
	Dir             string `json:"dir" yaml:"dir"`
	GCSBucket       string `json:"gcs_bucket" yaml:"gcs_bucket"`
	AzureAccount    string `json:"azure_account" yaml:"azure_account"`
	AzureAccountKey string `json:"-" yaml:"-"`
	AzureContainer  string `json:"azure_container" yaml:"azure_container"`
}

// InboxConfig controls the watched drop directory for audio files.
type InboxConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Dir     string `json:"dir" yaml:"dir"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type fileConfig struct {
	APIHost     string   `json:"api_host" yaml:"api_host"`
	APIPort     string   `json:"api_port" yaml:"api_port"`
	MaxAudioMB  int      `json:"max_audio_mb" yaml:"max_audio_mb"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	Auth        struct {
		Secret string `json:"secret" yaml:"secret"`
	} `json:"auth" yaml:"auth"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Archive  ArchiveConfig  `json:"archive" yaml:"archive"`
	Inbox    InboxConfig    `json:"inbox" yaml:"inbox"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

const (
	defaultHost            = "127.0.0.1"
	defaultPort            = "8000"
	defaultDBPath          = "notes.db"
	defaultStoreDriver     = "sqlite"
	defaultProvider        = "assemblyai"
	defaultAssemblyAIURL   = "https://api.assemblyai.com"
	defaultGeminiModel     = "gemini-2.5-flash"
	defaultProviderTimeout = 300
	defaultPollInterval    = 3 * time.Second
	defaultMaxAudioMB      = 25
	defaultArchiveKind     = "none"
	defaultInboxDir        = "inbox"
	defaultCORSOrigin      = "http://localhost:8501"
	minQueueSize           = 1
	defaultQueueSize       = 32
	maxQueueSize           = 1024
	defaultWorkerCount     = 2
	defaultJobTimeoutSec   = 600
)

// Load reads configuration from a .env file, the config file at CONFIG_PATH
// and environment variables, in increasing order of precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		WorkerCount:   defaultWorkerCount,
		JobQueueSize:  defaultQueueSize,
		JobTimeoutSec: defaultJobTimeoutSec,
		StrictConfig:  parseBoolEnv("STRICT_CONFIG"),
		AuthSecret:    os.Getenv("AUTH_SECRET"),
	}

	cfg.ConfigPath = getEnv("CONFIG_PATH", filepath.Join("config", "config.yaml"))
	fileCfg, fileErr := loadFileConfig(cfg.ConfigPath)
	if fileErr != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", cfg.ConfigPath, fileErr)
		}
		if !errors.Is(fileErr, os.ErrNotExist) {
			log.Warn().Err(fileErr).Str("path", cfg.ConfigPath).Msg("config file ignored, using defaults")
		}
	}

	cfg.APIHost = firstNonEmpty(os.Getenv("API_HOST"), fileCfg.APIHost, defaultHost)
	cfg.APIPort = strings.TrimPrefix(firstNonEmpty(os.Getenv("API_PORT"), fileCfg.APIPort, defaultPort), ":")
	cfg.AuthSecret = firstNonEmpty(cfg.AuthSecret, fileCfg.Auth.Secret)

	maxMB := defaultMaxAudioMB
	if fileCfg.MaxAudioMB > 0 {
		maxMB = fileCfg.MaxAudioMB
	}
	if v, ok, err := parseIntEnv("MAX_AUDIO_MB"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid MAX_AUDIO_MB: %w", err)
		}
		log.Warn().Err(err).Msg("invalid MAX_AUDIO_MB, using default")
	} else if ok && v > 0 {
		maxMB = v
	}
	cfg.MaxAudioBytes = int64(maxMB) * 1024 * 1024

	cfg.CORSOrigins = fileCfg.CORSOrigins
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{defaultCORSOrigin}
	}

	cfg.Store = StoreConfig{
		Driver: strings.ToLower(firstNonEmpty(os.Getenv("STORE_DRIVER"), fileCfg.Store.Driver, defaultStoreDriver)),
		Path:   firstNonEmpty(os.Getenv("DB_PATH"), fileCfg.Store.Path, defaultDBPath),
		DSN:    firstNonEmpty(os.Getenv("DATABASE_URL"), fileCfg.Store.DSN),
	}

	cfg.Provider = ProviderConfig{
		Name:         strings.ToLower(firstNonEmpty(os.Getenv("TRANSCRIPTION_PROVIDER"), fileCfg.Provider.Name, defaultProvider)),
		TimeoutSec:   defaultProviderTimeout,
		PollInterval: defaultPollInterval,
	}
	switch cfg.Provider.Name {
	case "gemini":
		cfg.Provider.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		cfg.Provider.Model = firstNonEmpty(os.Getenv("GEMINI_MODEL"), fileCfg.Provider.Model, defaultGeminiModel)
	default:
		cfg.Provider.APIKey = strings.TrimSpace(os.Getenv("ASSEMBLYAI_API_KEY"))
		cfg.Provider.BaseURL = strings.TrimRight(firstNonEmpty(os.Getenv("ASSEMBLYAI_BASE_URL"), fileCfg.Provider.BaseURL, defaultAssemblyAIURL), "/")
		cfg.Provider.Model = fileCfg.Provider.Model
	}
	if fileCfg.Provider.TimeoutSec > 0 {
		cfg.Provider.TimeoutSec = fileCfg.Provider.TimeoutSec
	}
	if v, ok, err := parseIntEnv("PROVIDER_TIMEOUT_SEC"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid PROVIDER_TIMEOUT_SEC: %w", err)
		}
		log.Warn().Err(err).Msg("invalid PROVIDER_TIMEOUT_SEC, using default")
	} else if ok && v > 0 {
		cfg.Provider.TimeoutSec = v
	}

	cfg.Archive = ArchiveConfig{
		Kind:            strings.ToLower(firstNonEmpty(os.Getenv("ARCHIVE_KIND"), fileCfg.Archive.Kind, defaultArchiveKind)),
		Dir:             firstNonEmpty(os.Getenv("ARCHIVE_DIR"), fileCfg.Archive.Dir),
		GCSBucket:       firstNonEmpty(os.Getenv("GCS_BUCKET"), fileCfg.Archive.GCSBucket),
		AzureAccount:    firstNonEmpty(os.Getenv("AZURE_ACCOUNT"), fileCfg.Archive.AzureAccount),
		AzureAccountKey: os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureContainer:  firstNonEmpty(os.Getenv("AZURE_CONTAINER"), fileCfg.Archive.AzureContainer),
	}

	cfg.Inbox = InboxConfig{
		Enabled: parseBoolEnvDefault("INBOX_ENABLED", fileCfg.Inbox.Enabled),
		Dir:     firstNonEmpty(os.Getenv("INBOX_DIR"), fileCfg.Inbox.Dir, defaultInboxDir),
	}

	cfg.Logging = LoggingConfig{
		Level:  strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), fileCfg.Logging.Level, "info")),
		Format: strings.ToLower(firstNonEmpty(os.Getenv("LOG_FORMAT"), fileCfg.Logging.Format, "console")),
	}

	if v := os.Getenv("WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Warn().Str("value", v).Int("default", defaultWorkerCount).Msg("invalid WORKER_COUNT")
			n = defaultWorkerCount
		}
		cfg.WorkerCount = n
	}

	if v := os.Getenv("JOB_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Warn().Str("value", v).Int("default", defaultQueueSize).Msg("invalid JOB_QUEUE_SIZE")
			n = defaultQueueSize
		}
		if n < minQueueSize {
			n = minQueueSize
		}
		if n > maxQueueSize {
			n = maxQueueSize
		}
		cfg.JobQueueSize = n
	}
	if cfg.JobQueueSize < cfg.WorkerCount {
		cfg.JobQueueSize = max(defaultQueueSize, cfg.WorkerCount)
	}

	if v := os.Getenv("JOB_TIMEOUT_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid JOB_TIMEOUT_SEC: %w", err)
		}
		if n <= 0 {
			return cfg, fmt.Errorf("JOB_TIMEOUT_SEC must be positive")
		}
		cfg.JobTimeoutSec = n
	}

	if err := validateConfig(cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Warn().Err(err).Msg("config validation failed (continuing)")
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return c.APIHost + ":" + c.APIPort
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.APIPort) == "" {
		return errors.New("API_PORT is required")
	}
	if _, err := strconv.Atoi(cfg.APIPort); err != nil {
		return fmt.Errorf("API_PORT must be numeric: %w", err)
	}
	switch cfg.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.Store.Path) == "" {
			return errors.New("DB_PATH is required for sqlite store")
		}
	case "postgres":
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			return errors.New("DATABASE_URL is required for postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	switch cfg.Provider.Name {
	case "assemblyai", "gemini":
	default:
		return fmt.Errorf("unknown transcription provider %q", cfg.Provider.Name)
	}
	if cfg.Provider.APIKey == "" {
		return fmt.Errorf("%s API key is not set", cfg.Provider.Name)
	}
	switch cfg.Archive.Kind {
	case "none":
	case "local":
		if cfg.Archive.Dir == "" {
			return errors.New("ARCHIVE_DIR is required for local archive")
		}
	case "gcs":
		if cfg.Archive.GCSBucket == "" {
			return errors.New("GCS_BUCKET is required for gcs archive")
		}
	case "azure":
		if cfg.Archive.AzureAccount == "" || cfg.Archive.AzureAccountKey == "" || cfg.Archive.AzureContainer == "" {
			return errors.New("AZURE_ACCOUNT, AZURE_ACCOUNT_KEY and AZURE_CONTAINER are required for azure archive")
		}
	default:
		return fmt.Errorf("unknown archive kind %q", cfg.Archive.Kind)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return defaultVal
	}
	return parseBoolEnv(key)
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}
