package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the server and simulation settings.
type Config struct {
	Addr        string
	DBDriver    string
	DatabaseURL string
	StaticDir   string
	LogLevel    string
	Dev         bool

	TrickLimit int
	Bot        string
	Seed       uint64
	Hands      int
	Opponent   string
}

// Load reads a .env file if one exists and builds the config from the
// environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the config from the environment alone.
func FromEnv() Config {
	addr := getenv("ADDR", "")
	if addr == "" {
		addr = ":" + getenv("PORT", "8080")
	}
	driver := getenv("DB_DRIVER", "sqlite3")
	dsn := getenv("DATABASE_URL", "")
	if dsn == "" && driver == "sqlite3" {
		dsn = getenv("SQLITE_PATH", "./briscola.db")
	}

	return Config{
		Addr:        addr,
		DBDriver:    driver,
		DatabaseURL: dsn,
		StaticDir:   getenv("STATIC_DIR", "web/static"),
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		Dev:         asBool(os.Getenv("DEV")),
		TrickLimit:  atoiDef(os.Getenv("TRICK_LIMIT"), 20),
		Bot:         getenv("BOT", "greedy"),
		Seed:        uintDef(os.Getenv("SEED"), 0),
		Hands:       atoiDef(os.Getenv("HANDS"), 100),
		Opponent:    getenv("OPPONENT", "random"),
	}
}

// Logger builds the zap logger the config asks for.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	zc := zap.NewProductionConfig()
	if c.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func uintDef(s string, def uint64) uint64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return def
	}
	return n
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
