package app

import (
	"time"

	"github.com/ArtemMoroz51/quizbox/internal/config"
	"github.com/ArtemMoroz51/quizbox/internal/storage"
)

type Config struct {
	HTTPAddr string
	DB       storage.DBConfig

	// StorageDir holds the fallback file store.
	StorageDir string

	APIToken    string
	CORSOrigins []string

	// ReconnectSchedule is a cron spec; empty disables the job.
	ReconnectSchedule string
	ConnectTimeout    time.Duration

	RecentLimit    int
	RecentSessions int

	LogLevel string
	LogFile  string

	Title   string
	Version string
}

// ConfigFromProperties reads the application settings out of a loaded
// properties file.
func ConfigFromProperties(p *config.Properties) Config {
	cfg := Config{
		HTTPAddr: p.String(config.KeyHTTPAddr),
		DB: storage.DBConfig{
			URL:      p.String(config.KeyDBURL),
			User:     p.String(config.KeyDBUser),
			Password: p.String(config.KeyDBPassword),
			Driver:   p.String(config.KeyDBDriver),
		},
		StorageDir:        p.String(config.KeyStorageDir),
		APIToken:          p.String(config.KeyAPIToken),
		CORSOrigins:       p.List(config.KeyCORSOrigins),
		ReconnectSchedule: p.String(config.KeyReconnectSchedule),
		ConnectTimeout:    5 * time.Second,
		RecentLimit:       p.Int(config.KeyRecentLimit),
		RecentSessions:    p.Int(config.KeyRecentSessions),
		LogLevel:          p.String(config.KeyLogLevel),
		LogFile:           p.String(config.KeyLogFile),
		Title:             p.String(config.KeyAppTitle),
		Version:           p.String(config.KeyAppVersion),
	}
	if p.Bool(config.KeyDebugMode) {
		cfg.LogLevel = "debug"
	}
	return cfg
}
