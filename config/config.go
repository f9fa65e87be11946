package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	PublicURL  string
	Database   DatabaseConfig
	Storage    StorageConfig
	Events     EventsConfig
}

type DatabaseConfig struct {
	ConnString string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	UseSSL     bool
}

// StorageConfig selects the image storage backend. Driver is one of
// "local", "minio", or "gcs".
type StorageConfig struct {
	Driver   string
	ImageDir string
	Minio    MinioConfig
	GCS      GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

// EventsConfig selects the lifecycle event broker. Driver is one of
// "rabbitmq", "pubsub", or empty to disable publishing.
type EventsConfig struct {
	Driver   string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL string
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		ConnString: getEnv("DATABASE_URL", ""),
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       getEnvInt("DB_PORT", 5432),
		User:       getEnv("DB_USER", "crowdfund"),
		Password:   getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "crowdfund_db"),
		UseSSL:     getEnvBool("DB_USE_SSL", false),
	}

	storageConfig := StorageConfig{
		Driver:   getEnv("STORAGE_DRIVER", "local"),
		ImageDir: getEnv("IMAGE_DIR", "images"),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "crowdfund-images"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	eventsConfig := EventsConfig{
		Driver:  getEnv("EVENTS_DRIVER", ""),
		Channel: getEnv("EVENTS_CHANNEL", "project-events"),
		RabbitMQ: RabbitMQConfig{
			URL: getEnv("RABBITMQ_URL", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		},
	}

	port := getEnvInt("SERVER_PORT", 3000)

	return Config{
		ServerPort: port,
		PublicURL:  getEnv("PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port)),
		Database:   dbConfig,
		Storage:    storageConfig,
		Events:     eventsConfig,
	}
}

// URL returns the Postgres connection string, preferring DATABASE_URL
// when set over the individual DB_* parts.
func (c DatabaseConfig) URL() string {
	if c.ConnString != "" {
		return c.ConnString
	}

	sslmode := "disable"
	if c.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		User:   url.UserPassword(c.User, c.Password),
		Path:   c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}
