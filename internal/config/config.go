package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the runtime configuration shared by every binary.
type Config struct {
	Data   DataConfig
	Admin  AdminConfig
	Server ServerConfig
	AI     AIConfig

	LookupScope string
	LogLevel    string
}

type DataConfig struct {
	Driver      string // json, sqlite or postgres
	Dir         string
	EntriesFile string
	UsersFile   string
	NotesFile   string
	SQLitePath  string
	DatabaseURL string
	ReportDir   string
}

type AdminConfig struct {
	Username string
	Password string
}

type ServerConfig struct {
	Port               string
	AllowedOrigins     string
	JWTSecret          string
	LoginRatePerMinute int
	SecureCookies      bool
}

type AIConfig struct {
	APIKey string
	Model  string
}

// Load reads configuration from the environment. Callers load .env beforehand
// with godotenv, so file and process variables look the same here.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("STORE_DRIVER", "json")
	v.SetDefault("DATA_DIR", ".")
	v.SetDefault("DATA_FILE", "data.json")
	v.SetDefault("USERS_FILE", "users.json")
	v.SetDefault("NOTES_FILE", "notes.json")
	v.SetDefault("SQLITE_PATH", "dsr.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REPORT_DIR", "")
	v.SetDefault("ADMIN_USER", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("LOOKUP_SCOPE", "user")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("SECURE_COOKIES", true)
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("LOG_LEVEL", "info")

	dir := v.GetString("DATA_DIR")
	return &Config{
		Data: DataConfig{
			Driver:      strings.ToLower(v.GetString("STORE_DRIVER")),
			Dir:         dir,
			EntriesFile: inDir(dir, v.GetString("DATA_FILE")),
			UsersFile:   inDir(dir, v.GetString("USERS_FILE")),
			NotesFile:   inDir(dir, v.GetString("NOTES_FILE")),
			SQLitePath:  inDir(dir, v.GetString("SQLITE_PATH")),
			DatabaseURL: v.GetString("DATABASE_URL"),
			ReportDir:   v.GetString("REPORT_DIR"),
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USER"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		Server: ServerConfig{
			Port:               v.GetString("SERVER_PORT"),
			AllowedOrigins:     v.GetString("ALLOWED_ORIGINS"),
			JWTSecret:          v.GetString("JWT_SECRET"),
			LoginRatePerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
			SecureCookies:      v.GetBool("SECURE_COOKIES"),
		},
		AI: AIConfig{
			APIKey: v.GetString("OPENAI_API_KEY"),
			Model:  v.GetString("OPENAI_MODEL"),
		},
		LookupScope: v.GetString("LOOKUP_SCOPE"),
		LogLevel:    v.GetString("LOG_LEVEL"),
	}
}

// inDir resolves name relative to dir unless it is already absolute.
func inDir(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
