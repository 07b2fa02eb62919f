package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

func load() {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	})
}

func Config(key string) string {
	load()
	return os.Getenv(key)
}

// String returns the value of key, or def when it is unset or blank.
func String(key, def string) string {
	v := strings.TrimSpace(Config(key))
	if v == "" {
		return def
	}
	return v
}

func Int(key string, def int) int {
	v := strings.TrimSpace(Config(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("⚠️ Invalid value for %s (%q), using default %d", key, v, def)
		return def
	}
	return n
}

// Duration parses values such as "60s" or "5m". A bare integer is read as seconds.
func Duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(Config(key))
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("⚠️ Invalid duration for %s (%q), using default %s", key, v, def)
		return def
	}
	return d
}
