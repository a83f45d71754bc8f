package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the immutable configuration bundle built once at startup and
// passed into constructors. Values come from the environment; main loads
// a .env file first so local setups need no exported variables.
type Config struct {
	// Backend selects the inference provider: "ollama", "gemini" or "proxy".
	Backend string
	// Model is the model identifier sent with every generation request.
	Model string

	OllamaHost  string
	GeminiKey   string
	ProxyURL    string
	ProxyAPIKey string

	// ConnectTimeout bounds dialing the backend; RequestTimeout bounds the
	// whole call including reading the response.
	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	// DBPath is the SQLite database file. FilesDir is the root under which
	// every mission gets its own sandbox directory.
	DBPath   string
	FilesDir string

	// MaxFilesPerStep caps how many generated files a single step may write.
	MaxFilesPerStep int

	ListenAddr string
	LogPath    string
	Debug      bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load builds the configuration from the environment, applying the
// defaults the service ships with.
func Load() Config {
	return Config{
		Backend:         getenv("DEVFORGE_BACKEND", "ollama"),
		Model:           getenv("DEVFORGE_MODEL", ""),
		OllamaHost:      getenv("OLLAMA_HOST", "http://localhost:11434"),
		GeminiKey:       getenv("GEMINI_API_KEY", ""),
		ProxyURL:        getenv("AI_PROXY_URL", ""),
		ProxyAPIKey:     getenv("AI_PROXY_KEY", ""),
		ConnectTimeout:  time.Duration(getint("DEVFORGE_CONNECT_TIMEOUT_S", 10)) * time.Second,
		RequestTimeout:  time.Duration(getint("DEVFORGE_REQUEST_TIMEOUT_S", 120)) * time.Second,
		DBPath:          getenv("DEVFORGE_DB", "devforge.db"),
		FilesDir:        getenv("DEVFORGE_FILES_DIR", "files"),
		MaxFilesPerStep: getint("DEVFORGE_MAX_FILES_PER_STEP", 30),
		ListenAddr:      getenv("DEVFORGE_LISTEN", ":8080"),
		LogPath:         getenv("DEVFORGE_LOG", "devforge.log"),
		Debug:           getenv("DEVFORGE_DEBUG", "") != "",
	}
}

// Validate rejects combinations the providers cannot work with.
func (c Config) Validate() error {
	switch c.Backend {
	case "ollama":
	case "gemini":
		if c.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is not set")
		}
	case "proxy":
		if c.ProxyURL == "" {
			return fmt.Errorf("AI_PROXY_URL is not set")
		}
	default:
		return fmt.Errorf("unsupported backend: %s", c.Backend)
	}
	if c.MaxFilesPerStep <= 0 {
		return fmt.Errorf("max files per step must be positive")
	}
	return nil
}
