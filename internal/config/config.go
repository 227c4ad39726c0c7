// config.go
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMongo  = "mongo"
	BackendPebble = "pebble"
	BackendMemory = "memory"
)

type Config struct {
	Port string

	MongoURI     string
	MongoDBName  string
	StoreBackend string
	PebbleDir    string

	SecretKey string
	TokenTTL  time.Duration

	// Vacío desactiva el consumer de Rabbit.
	RabbitURL string

	// Vacío usa un publisher que descarta los eventos.
	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat string
}

// Load lee el entorno. Si existe un .env se carga antes; las variables
// ya definidas en el proceso tienen prioridad.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "8080"),
		MongoURI:     getEnv("MONGO_URI", "mongodb://host.docker.internal:27017"),
		MongoDBName:  getEnv("MONGO_DB_NAME", "despatch_advice_db"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		PebbleDir:    getEnv("PEBBLE_DIR", "data/despatch"),
		SecretKey:    getEnv("SECRET_KEY", "change-me"),
		TokenTTL:     getDuration("TOKEN_TTL", time.Hour),
		RabbitURL:    getEnv("RABBIT_URL", ""),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "despatch-advice-events"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getDuration acepta "90m", "2h"... Un valor inválido usa el fallback.
func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
