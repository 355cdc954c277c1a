package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DB struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

func (d DB) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type S3 struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	PublicURL    string
	UsePathStyle bool
}

type Config struct {
	Env            string
	Port           string
	DB             DB
	RedisAddr      string
	KafkaBroker    string
	JWTSecret      string
	AccessTokenTTL time.Duration
	MaxRetries     int
	S3             S3
	AdminEmail     string
	AdminPassword  string
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "3000"),
		DB: DB{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "go_leave"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBroker:    os.Getenv("KAFKA_BROKER"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: time.Duration(getInt("ACCESS_TOKEN_TTL_MIN", 60)) * time.Minute,
		MaxRetries:     getInt("CONNECT_MAX_RETRIES", 5),
		S3: S3{
			Region:       getEnv("S3_REGION", "us-east-1"),
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			AccessKey:    os.Getenv("S3_ACCESS_KEY"),
			SecretKey:    os.Getenv("S3_SECRET_KEY"),
			Bucket:       getEnv("S3_BUCKET", "profile-pictures"),
			PublicURL:    os.Getenv("S3_PUBLIC_URL"),
			UsePathStyle: getBool("S3_USE_PATH_STYLE", true),
		},
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
