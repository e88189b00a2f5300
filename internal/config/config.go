// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Session
	SessionMaxAge          int // セッション有効期間（秒）
	SessionCleanupInterval time.Duration

	// Auth
	AdminDefaultPassword string // 初回起動時にブートストラップされるadminのパスワード
	BcryptCost           int

	// Dashboard
	DashboardHTMLURL  string
	DashboardCacheTTL time.Duration

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// defaultDashboardHTMLURL はダッシュボードHTMLの既定の取得元。
const defaultDashboardHTMLURL = "https://raw.githubusercontent.com/Cupra-S2027/fixit-dashboard/main/index.html"

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if cfg.RedisAddr == "" {
		missing = append(missing, "REDIS_ADDR")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	cfg.AdminDefaultPassword = getEnvString("ADMIN_DEFAULT_PASSWORD", "fixit2026")
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.DashboardHTMLURL = getEnvString("DASHBOARD_HTML_URL", defaultDashboardHTMLURL)
	cfg.DashboardCacheTTL = getEnvDuration("DASHBOARD_CACHE_TTL", 5*time.Minute)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
