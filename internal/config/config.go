package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port            int
	DatabaseURL     string
	RedisAddr       string
	RAWGAPIKey      string
	RAWGBaseURL     string
	SessionTTLHours int
	RefreshSchedule string
	RefreshPages    int
}

func Load() *Config {
	return &Config{
		Port:            envInt("PORT", 8080),
		DatabaseURL:     env("DATABASE_URL", "postgres://gamerelease:gamerelease@db:5432/gamerelease?sslmode=disable"),
		RedisAddr:       env("REDIS_ADDR", "redis:6379"),
		RAWGAPIKey:      env("RAWG_API_KEY", ""),
		RAWGBaseURL:     env("RAWG_BASE_URL", "https://api.rawg.io/api"),
		SessionTTLHours: envInt("SESSION_TTL_HOURS", 24*7),
		RefreshSchedule: env("REFRESH_SCHEDULE", "@every 6h"),
		RefreshPages:    envInt("REFRESH_PAGES", 2),
	}
}

// MergeFromDB overlays values from the settings table so operators can
// change them without a restart. A missing table or row is not an error.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("config: skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "rawg_api_key":
			c.RAWGAPIKey = value
		case "refresh_schedule":
			c.RefreshSchedule = value
		case "refresh_pages":
			if v, err := strconv.Atoi(value); err == nil {
				c.RefreshPages = v
			}
		case "session_ttl_hours":
			if v, err := strconv.Atoi(value); err == nil {
				c.SessionTTLHours = v
			}
		}
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
