package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
)

const (
	minPort = 1024
	maxPort = 65535

	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

var (
	ErrInvalidPort     = errors.New("port must be between 1024 and 65535")
	ErrNoUserDatabase  = errors.New("user database path is required")
	ErrUnknownDriver   = errors.New("unknown user database driver")
	ErrInvalidSettings = errors.New("invalid settings")
)

// Config is read from YAML or JSON, chosen by file extension. JSON keys
// are camelCase.
type Config struct {
	LogLevel           string `yaml:"log-level" json:"logLevel" env-default:"info"`
	Host               string `yaml:"host" json:"host" env-default:"localhost"`
	Port               int    `yaml:"port" json:"port"`
	UserDatabase       string `yaml:"user-database" json:"userDatabase"`
	UserDatabaseDriver string `yaml:"user-database-driver" json:"userDatabaseDriver" env-default:"json"`
	MaxRooms           int    `yaml:"max-rooms" json:"maxRooms" env-default:"256"`
	MaxFrameSize       int    `yaml:"max-frame-size" json:"maxFrameSize" env-default:"8192"`
	OutboundBuffer     int    `yaml:"outbound-buffer" json:"outboundBuffer" env-default:"64"`
	QueuePolicy        string `yaml:"queue-policy" json:"queuePolicy" env-default:"append"`
	WebSocketPort      int    `yaml:"websocket-port" json:"websocketPort"`
	HTTPPort           int    `yaml:"http-port" json:"httpPort"`
	Redis              Redis  `yaml:"redis" json:"redis"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" json:"enabled" env-default:"false"`
	Host    string `yaml:"host" json:"host" env-default:"localhost"`
	Port    string `yaml:"port" json:"port" env-default:"6379"`
}

// Load - reads and validates the config file.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

// MustLoad - load all configurations in the config file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Validate - checks ranges and expands ~ in the user database path.
func (that *Config) Validate() error {
	if !validPort(that.Port) {
		return fmt.Errorf("%w: port %d", ErrInvalidPort, that.Port)
	}

	// Optional listeners are disabled by 0.
	if that.WebSocketPort != 0 && !validPort(that.WebSocketPort) {
		return fmt.Errorf("%w: websocket-port %d", ErrInvalidPort, that.WebSocketPort)
	}

	if that.HTTPPort != 0 && !validPort(that.HTTPPort) {
		return fmt.Errorf("%w: http-port %d", ErrInvalidPort, that.HTTPPort)
	}

	if strings.TrimSpace(that.UserDatabase) == "" {
		return ErrNoUserDatabase
	}

	path, err := ExpandHome(that.UserDatabase)
	if err != nil {
		return err
	}
	that.UserDatabase = path

	switch that.UserDatabaseDriver {
	case DriverJSON:
		if _, err = os.Stat(path); err != nil {
			return fmt.Errorf("user database: %w", err)
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, that.UserDatabaseDriver)
	}

	if _, err = entity.ParseQueuePolicy(that.QueuePolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	if that.MaxRooms <= 0 || that.MaxFrameSize <= 0 || that.OutboundBuffer <= 0 {
		return fmt.Errorf("%w: max-rooms, max-frame-size and outbound-buffer must be positive", ErrInvalidSettings)
	}

	return nil
}

func validPort(port int) bool {
	return port >= minPort && port <= maxPort
}

func (that *Config) Addr() string {
	return net.JoinHostPort(that.Host, strconv.Itoa(that.Port))
}

func (that *Config) Policy() entity.QueuePolicy {
	return entity.QueuePolicy(that.QueuePolicy)
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// ExpandHome - replaces a leading ~ with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
