package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Database struct {
		Host     string `env:"DB_HOST" env-default:"localhost"`
		Port     int    `env:"DB_PORT" env-default:"5432"`
		User     string `env:"DB_USER" env-default:"lokals_user"`
		Password string `env:"DB_PASSWORD" env-default:"lokals_pass"`
		Name     string `env:"DB_NAME" env-default:"lokals_db"`
	}
	RabbitMQ struct {
		Host     string `env:"RABBITMQ_HOST" env-default:"localhost"`
		Port     int    `env:"RABBITMQ_PORT" env-default:"5672"`
		User     string `env:"RABBITMQ_USER" env-default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" env-default:"guest"`
	}
	WebSocket struct {
		Port int `env:"WS_PORT" env-default:"8080"`
	}
	Services struct {
		RequestServicePort   int `env:"REQUEST_SERVICE_PORT" env-default:"3000"`
		DeveloperServicePort int `env:"DEVELOPER_SERVICE_PORT" env-default:"3001"`
	}
	Matching struct {
		MaxDistanceKm float64       `env:"MATCH_MAX_DISTANCE_KM" env-default:"50"`
		LocationTTL   time.Duration `env:"LOCATION_TTL" env-default:"15m"`
	}
	Auth struct {
		JWTSecret string `env:"JWT_SECRET" env-default:"super-secret-key"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("cannot read config from environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Print() {
	fmt.Printf("Database: %s@%s:%d/%s\n", c.Database.User, c.Database.Host, c.Database.Port, c.Database.Name)
	fmt.Printf("RabbitMQ: amqp://%s@%s:%d\n", c.RabbitMQ.User, c.RabbitMQ.Host, c.RabbitMQ.Port)
	fmt.Printf("WebSocket port: %d\n", c.WebSocket.Port)
	fmt.Printf("Services -> request:%d | developer:%d\n",
		c.Services.RequestServicePort, c.Services.DeveloperServicePort)
	fmt.Printf("Matching: max %.0f km, location TTL %s\n", c.Matching.MaxDistanceKm, c.Matching.LocationTTL)
}
