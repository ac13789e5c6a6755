package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Users    []UserConfig   `mapstructure:"users"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// WorkflowConfig holds workflow rules configuration
type WorkflowConfig struct {
	// MentorCapacity bounds a mentor's concurrent ACTIVE assignments.
	MentorCapacity int `mapstructure:"mentor_capacity"`

	// RequiredLevels lists the approval levels a request needs before it is
	// fully approved.
	RequiredLevels []int `mapstructure:"required_levels"`
}

// ExportConfig holds batch manifest export configuration
type ExportConfig struct {
	SheetName string `mapstructure:"sheet_name"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// UserConfig is one entry of the static user directory. User management is
// outside this system; the directory only resolves IDs to roles.
type UserConfig struct {
	ID         string `mapstructure:"id"`
	Role       string `mapstructure:"role"`
	Department string `mapstructure:"department"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/internship.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Workflow defaults
	viper.SetDefault("workflow.mentor_capacity", 3)
	viper.SetDefault("workflow.required_levels", []int{1, 2})

	// Export defaults
	viper.SetDefault("export.sheet_name", "Applications")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("workflow.mentor_capacity", "MENTOR_CAPACITY")
	viper.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Workflow.MentorCapacity <= 0 {
		return fmt.Errorf("workflow.mentor_capacity must be positive")
	}
	if len(c.Workflow.RequiredLevels) == 0 {
		return fmt.Errorf("workflow.required_levels must not be empty")
	}
	for _, level := range c.Workflow.RequiredLevels {
		if level <= 0 {
			return fmt.Errorf("workflow.required_levels contains invalid level %d", level)
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	seen := make(map[string]bool, len(c.Users))
	for _, user := range c.Users {
		if user.ID == "" || user.Role == "" {
			return fmt.Errorf("users entries need both id and role")
		}
		if seen[user.ID] {
			return fmt.Errorf("duplicate user id %s", user.ID)
		}
		seen[user.ID] = true
	}

	return nil
}
