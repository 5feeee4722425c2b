package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string
	LogFile  string

	StoreDriver string
	MongoURI    string
	MongoDB     string

	BlobDir          string
	BlobBaseURL      string
	PlaceholderImage string

	UploadWorkers    int
	MaxUploadMB      int
	SettingsSeedFile string
	CacheTTL         time.Duration
}

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

func LoadConfig() *Config {
	// Solo cargar .env en desarrollo local
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Error loading .env file:", err)
		} else {
			log.Println("✅ .env file loaded successfully")
		}
	} else {
		log.Println("🌐 Using system environment variables")
	}

	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		StoreDriver: getEnv("STORE_DRIVER", StoreMongo),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "doorCatalog"),

		BlobDir:          getEnv("BLOB_DIR", "./uploads"),
		BlobBaseURL:      getEnv("BLOB_BASE_URL", "/uploads"),
		PlaceholderImage: getEnv("PLACEHOLDER_IMAGE_URL", "/uploads/placeholder.jpg"),

		UploadWorkers:    getEnvInt("UPLOAD_WORKERS", 1),
		MaxUploadMB:      getEnvInt("MAX_UPLOAD_MB", 256),
		SettingsSeedFile: getEnv("SETTINGS_SEED_FILE", ""),
		CacheTTL:         getEnvDuration("CACHE_TTL", 5*time.Minute),
	}
}

// IsProduction indica si el servicio corre con la configuración de producción
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
