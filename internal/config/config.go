package config

import (
	"time"

	"github.com/busline/service-route/internal/platform/config"
)

// TripServiceConfig locates the bus service that owns trip inventory.
type TripServiceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ServiceConfig holds all configuration for the route service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	LogFile     string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig
	TripService TripServiceConfig
}

// Load reads configuration from ROUTE_-prefixed environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("ROUTE")
	if err != nil {
		return nil, err
	}

	v.SetDefault("DB_NAME", "route_service")
	v.SetDefault("KAFKA_TOPIC", "route.events")
	v.SetDefault("TRIP_SERVICE_URL", "http://localhost:8081/bus-service/api")

	return &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		LogFile:     v.GetString("LOG_FILE"),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v, "KAFKA_TOPIC"),
		TripService: TripServiceConfig{
			BaseURL: v.GetString("TRIP_SERVICE_URL"),
			Timeout: config.GetDuration(v, "TRIP_SERVICE_TIMEOUT", 5*time.Second),
		},
	}, nil
}
