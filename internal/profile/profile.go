package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the chat server.
type Profile struct {
	// Tool-calling model configuration (OpenAI-compatible protocol)
	ModelBaseURL string // Model server base URL
	ModelAPIKey  string // Model server API key
	ModelName    string // Model name sent in requests
	ModelTimeout int    // Model request timeout in seconds (default: 3)
	ModelEnabled bool   // Whether the tool-calling model stage is enabled

	// Secondary chatbot backend (full RAG backend, optional)
	ProxyBaseURL string
	ProxyTimeout int // Proxy request timeout in seconds (default: 5)
	ProxyEnabled bool

	// NUS NextBus credentials (Basic Auth)
	BusUsername string
	BusPassword string
	BusMock     bool // Use the deterministic mock provider instead of the real API

	// Knowledge corpus override; empty means the embedded default corpus
	CorpusPath string

	// Server / storage
	Mode    string // demo, dev, prod
	Addr    string
	Port    int
	Data    string
	Driver  string // sqlite, postgres
	DSN     string
	Version string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads upstream-service configuration from environment variables.
func (p *Profile) FromEnv() {
	p.ModelBaseURL = getEnvOrDefault("ECOGO_CHAT_MODEL_BASE_URL", "http://localhost:9000")
	p.ModelAPIKey = getEnvOrDefault("ECOGO_CHAT_MODEL_API_KEY", "dev-model-key")
	p.ModelName = getEnvOrDefault("ECOGO_CHAT_MODEL_NAME", "greentravel-local")
	p.ModelTimeout = getEnvOrDefaultInt("ECOGO_CHAT_MODEL_TIMEOUT_SECONDS", 3)
	p.ModelEnabled = getEnvOrDefault("ECOGO_CHAT_MODEL_ENABLED", "false") == "true"

	p.ProxyBaseURL = getEnvOrDefault("ECOGO_CHAT_PROXY_BASE_URL", "http://localhost:8000")
	p.ProxyTimeout = getEnvOrDefaultInt("ECOGO_CHAT_PROXY_TIMEOUT_SECONDS", 5)
	p.ProxyEnabled = getEnvOrDefault("ECOGO_CHAT_PROXY_ENABLED", "false") == "true"

	p.BusUsername = getEnvOrDefault("ECOGO_NUS_BUS_USERNAME", "")
	p.BusPassword = getEnvOrDefault("ECOGO_NUS_BUS_PASSWORD", "")
	p.BusMock = getEnvOrDefault("ECOGO_NUS_BUS_MOCK", "false") == "true" || p.BusUsername == ""

	p.CorpusPath = getEnvOrDefault("ECOGO_CHAT_CORPUS_PATH", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q, expected sqlite or postgres", p.Driver)
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/ecogo"
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("ecogo_%s.db", p.Mode))
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	return nil
}
