package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/djh20/lfs-leaderboard/internal/protocol"
)

// ErrConfigCreated is returned when the clients file was missing and has been
// written with defaults. The user is expected to edit it and start again.
var ErrConfigCreated = errors.New("config file created with defaults")

// ClientConfig describes one simulator to connect to
type ClientConfig struct {
	Name     string `json:"name,omitempty"`
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	Password string `json:"password,omitempty"`
}

// Address returns host:port, using the default InSim port when unset
func (c ClientConfig) Address() string {
	port := c.Port
	if port == 0 {
		port = protocol.DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// DisplayName returns Name, or the address when no name is set
func (c ClientConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Address()
}

// FileConfig is the JSON clients file
type FileConfig struct {
	Clients []ClientConfig `json:"clients"`
}

// DefaultFileConfig is written on first run
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Clients: []ClientConfig{{Host: "localhost"}},
	}
}

// Config holds all configuration for lfsboard
type Config struct {
	AppEnv         string
	ConfigPath     string
	DatabaseURL    string
	RedisURL       string
	NATSURL        string
	HTTPPort       int
	ProgramName    string
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Debug          bool

	Clients []ClientConfig
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:         getEnv("APP_ENV", "production"),
		ConfigPath:     getEnv("CONFIG_PATH", "config.json"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		NATSURL:        getEnv("NATS_URL", ""),
		HTTPPort:       getEnvAsInt("HTTP_PORT", 8081),
		ProgramName:    getEnv("PROGRAM_NAME", "LFS Leaderboard"),
		ReconnectDelay: getEnvAsDuration("RECONNECT_DELAY", time.Second),
		DialTimeout:    getEnvAsDuration("DIAL_TIMEOUT", 2*time.Second),
		ReadTimeout:    getEnvAsDuration("READ_TIMEOUT", 90*time.Second),
		WriteTimeout:   getEnvAsDuration("WRITE_TIMEOUT", 10*time.Second),
		Debug:          getEnvAsBool("DEBUG", false),
	}
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LoadClients reads the clients file at ConfigPath into c.Clients
func (c *Config) LoadClients() error {
	file, err := LoadFile(c.ConfigPath)
	if err != nil {
		return err
	}
	c.Clients = file.Clients
	return nil
}

// LoadFile reads a clients file. A missing file is created with defaults and
// ErrConfigCreated is returned.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		defaults := DefaultFileConfig()
		out, err := json.MarshalIndent(defaults, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return nil, fmt.Errorf("write default config %s: %w", path, err)
		}
		return nil, ErrConfigCreated
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var file FileConfig
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if len(file.Clients) == 0 {
		return nil, fmt.Errorf("config %s: no clients configured", path)
	}
	for i, client := range file.Clients {
		if client.Host == "" {
			return nil, fmt.Errorf("config %s: client %d has no host", path, i)
		}
		if client.Port < 0 || client.Port > 65535 {
			return nil, fmt.Errorf("config %s: client %d has invalid port %d", path, i, client.Port)
		}
	}

	return &file, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
