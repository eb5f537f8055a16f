package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	APIAddr             string
	GeminiAPIKey        string
	GeminiModel         string
	GeminiBaseURL       string
	LLMProviders        string
	DataRoot            string
	UploadsDir          string
	CorpusPrefix        string
	RegistryBackend     string
	SQLitePath          string
	PostgresURL         string
	MaxUploadFiles      int
	MaxFileMB           int
	MaxAnswerWords      int
	ProviderTimeoutSecs int
	ProviderRetries     int
	ProviderRPS         float64
	FiltersFile         string
	WebAPIBase          string
	ChatStorePath       string
	RedisURL            string
	AuthToken           string
}

func Load() Config {
	dataRoot := getenv("RAGBOT_DATA_DIR", "./data")
	return Config{
		APIAddr:             resolveAddr(),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:         getenv("RAGBOT_GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:       os.Getenv("RAGBOT_GEMINI_BASE_URL"),
		LLMProviders:        getenv("RAGBOT_LLM_PROVIDERS", "gemini"),
		DataRoot:            dataRoot,
		UploadsDir:          getenv("RAGBOT_UPLOADS_DIR", filepath.Join(dataRoot, "uploads")),
		CorpusPrefix:        getenv("RAGBOT_CORPUS_PREFIX", "abs-brochures"),
		RegistryBackend:     strings.ToLower(getenv("RAGBOT_REGISTRY_BACKEND", "json")),
		SQLitePath:          getenv("RAGBOT_SQLITE_PATH", filepath.Join(dataRoot, "registry.db")),
		PostgresURL:         os.Getenv("RAGBOT_POSTGRES_URL"),
		MaxUploadFiles:      getenvPositiveInt("RAGBOT_MAX_UPLOAD_FILES", 50),
		MaxFileMB:           getenvPositiveInt("RAGBOT_MAX_FILE_MB", MaxFileMBLimit),
		MaxAnswerWords:      getenvPositiveInt("RAGBOT_MAX_ANSWER_WORDS", 80),
		ProviderTimeoutSecs: getenvInt("RAGBOT_PROVIDER_TIMEOUT_SECONDS", 30),
		ProviderRetries:     getenvInt("RAGBOT_PROVIDER_RETRIES", 1),
		ProviderRPS:         getenvFloat("RAGBOT_PROVIDER_RPS", 2),
		FiltersFile:         os.Getenv("RAGBOT_FILTERS_FILE"),
		WebAPIBase:          strings.TrimRight(getenv("RAGBOT_API_BASE", "http://localhost:5000"), "/"),
		ChatStorePath:       getenv("RAGBOT_CHAT_STORE", defaultChatStorePath()),
		RedisURL:            os.Getenv("RAGBOT_REDIS_URL"),
		AuthToken:           os.Getenv("RAGBOT_AUTH_TOKEN"),
	}
}

// MaxFileMBLimit is the largest per-file upload cap, in MiB.
const MaxFileMBLimit = 500

// MaxFileBytes is the per-file upload cap in bytes. Values outside
// (0, MaxFileMBLimit] fall back to the limit.
func (c Config) MaxFileBytes() int64 {
	mb := c.MaxFileMB
	if mb <= 0 || mb > MaxFileMBLimit {
		mb = MaxFileMBLimit
	}
	return int64(mb) << 20
}

func resolveAddr() string {
	if v := os.Getenv("RAGBOT_API_ADDR"); v != "" {
		return v
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":5000"
}

func defaultChatStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".ragbot", "chat_sessions.json")
	}
	return filepath.Join(home, ".ragbot", "chat_sessions.json")
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvPositiveInt(k string, fallback int) int {
	if n := getenvInt(k, fallback); n > 0 {
		return n
	}
	return fallback
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
