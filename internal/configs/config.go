package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RabbitMQConfig holds the RabbitMQ connection settings.
type RabbitMQConfig struct {
	URL string
}

// DBconfig holds the database settings.
type DBconfig struct {
	URL string
}

// RedisConfig holds the optimization cache settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type RESTconfig struct {
	PORT string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// PricingConfig carries the tunables of the pricing core.
type PricingConfig struct {
	Elasticity          float64
	MaxAdjustmentPct    float64
	SimilarityThreshold float64
	ComparableSetSize   int
	PriceTolerance      float64
	MaxIterations       int
}

// AppConfig holds the whole application configuration.
type AppConfig struct {
	Database     DBconfig
	RabbitMQ     RabbitMQConfig
	Redis        RedisConfig
	Rest         RESTconfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
	Pricing      PricingConfig
	AppName      string
}

// LoadConfig loads configuration from environment variables. A missing .env
// file is not an error: deployed environments inject variables directly.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "pricing-service")

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL environment variable is required")
	}

	cfg.Redis.Addr = getEnvAsString("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)
	cfg.Redis.CacheTTL = time.Duration(getEnvAsInt("OPTIMIZATION_CACHE_TTL_SECONDS", 3600)) * time.Second

	cfg.Rest.PORT = getEnvAsString("PORT", "8080")

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	cfg.Pricing.Elasticity = getEnvAsFloat("PRICING_ELASTICITY", -0.02)
	cfg.Pricing.MaxAdjustmentPct = getEnvAsFloat("PRICING_MAX_ADJUSTMENT_PCT", 0.20)
	cfg.Pricing.SimilarityThreshold = getEnvAsFloat("PRICING_SIMILARITY_THRESHOLD", 0.80)
	cfg.Pricing.ComparableSetSize = getEnvAsInt("PRICING_COMPARABLE_SET_SIZE", 5)
	cfg.Pricing.PriceTolerance = getEnvAsFloat("PRICING_PRICE_TOLERANCE", 1.0)
	cfg.Pricing.MaxIterations = getEnvAsInt("PRICING_MAX_ITERATIONS", 200)

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as int, logging and falling back
// to the default when the value cannot be parsed.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valFloat, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as float: %v. Using default value: %g\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valFloat
}
