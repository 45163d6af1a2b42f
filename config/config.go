package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort        string
	AppMode        string
	PublicBaseURL  string
	AllowedOrigins []string

	EncryptionKey string
	SessionTTL    time.Duration
	SweepInterval time.Duration

	DataDir      string
	SessionStore string // file | redis | postgres
	BlobStore    string // disk | s3

	MaxFileSize     int64
	MaxFilesPerItem int
	UploadRateLimit int

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:        getEnv("APP_PORT", "5000"),
		AppMode:        getEnv("APP_MODE", "debug"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:5000"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		SessionTTL:    time.Duration(getEnvAsInt("SESSION_TTL_MIN", 5)) * time.Minute,
		SweepInterval: time.Duration(getEnvAsInt("SWEEP_INTERVAL_MIN", 5)) * time.Minute,

		DataDir:      getEnv("DATA_DIR", "data"),
		SessionStore: getEnv("SESSION_STORE", "file"),
		BlobStore:    getEnv("BLOB_STORE", "disk"),

		MaxFileSize:     int64(getEnvAsInt("MAX_FILE_SIZE_MB", 50)) << 20,
		MaxFilesPerItem: getEnvAsInt("MAX_FILES_PER_UPLOAD", 10),
		UploadRateLimit: getEnvAsInt("UPLOAD_RATE_LIMIT", 10),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "cloudtab"),
		DBPort:     getEnv("DB_PORT", "5432"),

		S3Region:    getEnv("S3_REGION", ""),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
	}
}

// SessionsDir is where the file-backed session store keeps its records.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// UploadsDir is where the disk blob store keeps ciphertext.
func (c *Config) UploadsDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// TmpDir holds plaintext spill files during upload and retrieval.
func (c *Config) TmpDir() string {
	return filepath.Join(c.DataDir, "tmp")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
