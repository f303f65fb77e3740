package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Mongo  MongoConfig
	App    AppConfig
	Near   NearConfig
	Seed   SeedConfig
	Logger LoggerConfig
}

// MongoConfig holds configuration for the MongoDB store
type MongoConfig struct {
	URI      string `mapstructure:"MONGO_URI"`
	Database string `mapstructure:"MONGO_DB"`
}

// AppConfig holds configuration for the application server
type AppConfig struct {
	HTTPPort               string `mapstructure:"HTTP_PORT"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
	Environment            string `mapstructure:"APP_ENV"`
}

// NearConfig holds configuration for the proximity query
type NearConfig struct {
	RadiusMeters      float64 `mapstructure:"NEAR_RADIUS_METERS"`
	AllowCustomRadius bool    `mapstructure:"NEAR_ALLOW_CUSTOM_RADIUS"`
}

// SeedConfig holds configuration for the sample-data maintenance endpoint
type SeedConfig struct {
	Count   int    `mapstructure:"SEED_COUNT"`
	Centers string `mapstructure:"SEED_CENTERS"` // ";"-separated "lon,lat" pairs
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level          string `mapstructure:"LOG_LEVEL"`
	Format         string `mapstructure:"LOG_FORMAT"`
	OutputPath     string `mapstructure:"LOG_OUTPUT_PATH"`
	EnableSampling bool   `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName    string `mapstructure:"SERVICE_NAME"`
	ServiceVersion string `mapstructure:"SERVICE_VERSION"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	// Environment variables must be visible before the defaults are
	// computed: several defaults branch on APP_ENV.
	viper.AutomaticEnv()

	setDefaults()

	viper.AddConfigPath(path)
	viper.SetConfigName("app") // Look for app.env
	viper.SetConfigType("env")

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	// Manually populate config from viper
	config.Mongo.URI = viper.GetString("MONGO_URI")
	config.Mongo.Database = viper.GetString("MONGO_DB")

	config.App.HTTPPort = viper.GetString("HTTP_PORT")
	config.App.ShutdownTimeoutSeconds = viper.GetInt("SHUTDOWN_TIMEOUT_SECONDS")
	config.App.Environment = viper.GetString("APP_ENV")

	config.Near.RadiusMeters = viper.GetFloat64("NEAR_RADIUS_METERS")
	config.Near.AllowCustomRadius = viper.GetBool("NEAR_ALLOW_CUSTOM_RADIUS")

	config.Seed.Count = viper.GetInt("SEED_COUNT")
	config.Seed.Centers = viper.GetString("SEED_CENTERS")

	config.Logger.Level = viper.GetString("LOG_LEVEL")
	config.Logger.Format = viper.GetString("LOG_FORMAT")
	config.Logger.OutputPath = viper.GetString("LOG_OUTPUT_PATH")
	config.Logger.EnableSampling = viper.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = viper.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = viper.GetString("SERVICE_VERSION")

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "proximity")

	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	viper.SetDefault("APP_ENV", "development")

	viper.SetDefault("NEAR_RADIUS_METERS", 10000.0)
	// Caller-supplied radius is a development convenience only
	viper.SetDefault("NEAR_ALLOW_CUSTOM_RADIUS", viper.GetString("APP_ENV") != "production")

	viper.SetDefault("SEED_COUNT", 25)
	viper.SetDefault("SEED_CENTERS", "3.91,51.01")

	// Logger defaults
	env := viper.GetString("APP_ENV")
	if env == "production" {
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("LOG_FORMAT", "json")
		viper.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		viper.SetDefault("LOG_LEVEL", "debug")
		viper.SetDefault("LOG_FORMAT", "console")
		viper.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	viper.SetDefault("LOG_OUTPUT_PATH", "stdout")
	viper.SetDefault("SERVICE_NAME", "proximity-service")
	viper.SetDefault("SERVICE_VERSION", "1.0.0")
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGO_URI must not be empty")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("MONGO_DB must not be empty")
	}
	if c.App.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT must not be empty")
	}
	if c.Near.RadiusMeters <= 0 {
		return fmt.Errorf("NEAR_RADIUS_METERS must be positive, got %v", c.Near.RadiusMeters)
	}
	if c.Seed.Count < 0 {
		return fmt.Errorf("SEED_COUNT must not be negative, got %d", c.Seed.Count)
	}
	if _, err := c.Seed.ParseCenters(); err != nil {
		return err
	}
	return nil
}

// ParseCenters parses the configured seed centers into [lon, lat] pairs.
func (c *SeedConfig) ParseCenters() ([][]float64, error) {
	if strings.TrimSpace(c.Centers) == "" {
		return nil, fmt.Errorf("SEED_CENTERS must not be empty")
	}

	var centers [][]float64
	for _, pair := range strings.Split(c.Centers, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("SEED_CENTERS entry %q is not a lon,lat pair", pair)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("SEED_CENTERS entry %q has invalid longitude: %w", pair, err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("SEED_CENTERS entry %q has invalid latitude: %w", pair, err)
		}
		centers = append(centers, []float64{lon, lat})
	}
	return centers, nil
}
