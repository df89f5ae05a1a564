package services

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-default-secret-key-change-in-production"

type Config struct {
	Port           string
	DBPath         string
	JWTSecret      string
	AllowedOrigins []string
}

// LoadConfig reads the optional .env files and then the environment.
// Variables already set in the environment win over the files.
func LoadConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
	}

	cfg := &Config{
		Port:      getenv("PORT", "3001"),
		DBPath:    getenv("DB_PATH", "./lists.db"),
		JWTSecret: getenv("JWT_SECRET", ""),
	}
	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET is not set, using the development default")
		cfg.JWTSecret = defaultJWTSecret
	}

	for _, o := range strings.Split(getenv("ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
