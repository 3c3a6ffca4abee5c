package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	GRPCPort    string
	HTTPPort    string
	CORSOrigins string

	MaxMessageSizeMB int
	LogLevel         string
	LogFile          string
	Environment      string

	// Operator profile used to key the stored EAR threshold.
	Profile string
	// bcrypt hash of the token required to change thresholds. Empty disables the check.
	ControlTokenHash string

	AlarmMode      string // beep, serial or none
	BeepInterval   time.Duration
	SerialPort     string
	SerialBaudRate int
	SerialOnCmd    string
	SerialOffCmd   string

	DBName     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	Thresholds Thresholds
}

func (p *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.DBHost, p.DBPort, p.DBUser, p.DBPassword, p.DBName, p.DBSSLMode)
}

// DSNForLog returns the DSN with the password masked.
func (p *Config) DSNForLog() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=*** dbname=%s sslmode=%s",
		p.DBHost, p.DBPort, p.DBUser, p.DBName, p.DBSSLMode)
}

func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// StoreEnabled reports whether threshold preferences should be persisted.
func (c *Config) StoreEnabled() bool {
	return c.DBHost != ""
}

// LoadConfig reads .env (when present) and the process environment.
// The returned bool is false when no .env file was found.
func LoadConfig() (*Config, bool) {
	envLoaded := godotenv.Load() == nil

	def := DefaultThresholds()
	cfg := &Config{
		GRPCPort:         getEnv("GRPC_PORT", "50051"),
		HTTPPort:         getEnv("HTTP_PORT", "8081"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "*"),
		MaxMessageSizeMB: getEnvInt("MAX_MESSAGE_SIZE_MB", 4),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		LogFile:          getEnv("LOG_FILE", ""),
		Environment:      getEnv("ENVIRONMENT", "production"),
		Profile:          getEnv("OPERATOR_PROFILE", "default"),
		ControlTokenHash: getEnv("CONTROL_TOKEN_HASH", ""),
		AlarmMode:        getEnv("ALARM_MODE", "beep"),
		BeepInterval:     time.Duration(getEnvInt("BEEP_INTERVAL_MS", 700)) * time.Millisecond,
		SerialPort:       getEnv("SERIAL_PORT", "/dev/ttyUSB0"),
		SerialBaudRate:   getEnvInt("SERIAL_BAUD_RATE", 9600),
		SerialOnCmd:      getEnv("SERIAL_ON_CMD", "ALARM ON\n"),
		SerialOffCmd:     getEnv("SERIAL_OFF_CMD", "ALARM OFF\n"),
		DBHost:           getEnv("DB_HOST", ""),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBName:           getEnv("DB_NAME", "wakie"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		Thresholds: Thresholds{
			EarThreshold:            getEnvFloat("EAR_THRESHOLD", def.EarThreshold),
			MarThreshold:            getEnvFloat("MAR_THRESHOLD", def.MarThreshold),
			ClosedDurationMs:        int64(getEnvInt("EAR_CLOSED_MS", int(def.ClosedDurationMs))),
			EyeClosedIntermediateMs: int64(getEnvInt("EAR_EYE_CLOSED_MS", int(def.EyeClosedIntermediateMs))),
			YawnDurationMs:          int64(getEnvInt("MAR_YAWN_MS", int(def.YawnDurationMs))),
			ClosedFramesThreshold:   uint32(getEnvInt("CLOSED_FRAMES_THRESHOLD", int(def.ClosedFramesThreshold))),
			WakeFramesThreshold:     uint32(getEnvInt("WAKE_FRAMES_THRESHOLD", int(def.WakeFramesThreshold))),
		}.Normalize(),
	}

	if cfg.BeepInterval <= 0 {
		cfg.BeepInterval = 700 * time.Millisecond
	}

	return cfg, envLoaded
}

func getEnv(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if intVal, err := strconv.Atoi(v); err == nil && intVal >= 0 {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
