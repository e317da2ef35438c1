package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

const (
	KeyDBURL             = "DB_URL"
	KeyDBUser            = "DB_USER"
	KeyDBPassword        = "DB_PASSWORD"
	KeyDBDriver          = "DB_DRIVER"
	KeyAppTitle          = "APP_TITLE"
	KeyAppVersion        = "APP_VERSION"
	KeyWindowX           = "WINDOW_X"
	KeyWindowY           = "WINDOW_Y"
	KeyWindowWidth       = "WINDOW_WIDTH"
	KeyWindowHeight      = "WINDOW_HEIGHT"
	KeyDebugMode         = "DEBUG_MODE"
	KeyHTTPAddr          = "HTTP_ADDR"
	KeyStorageDir        = "STORAGE_DIR"
	KeyLogLevel          = "LOG_LEVEL"
	KeyLogFile           = "LOG_FILE"
	KeyRecentLimit       = "RECENT_LIMIT"
	KeyRecentSessions    = "RECENT_SESSIONS"
	KeyAPIToken          = "API_TOKEN"
	KeyReconnectSchedule = "RECONNECT_SCHEDULE"
	KeyCORSOrigins       = "CORS_ORIGINS"
)

// Defaults holds the value of every recognised key. Load writes any of them
// missing from the file back to it.
var Defaults = map[string]string{
	KeyDBURL:             "postgres://localhost:5432/quizbox",
	KeyDBUser:            "postgres",
	KeyDBPassword:        "",
	KeyDBDriver:          "pgx",
	KeyAppTitle:          "Quiz Box",
	KeyAppVersion:        "1.0",
	KeyWindowX:           "100",
	KeyWindowY:           "100",
	KeyWindowWidth:       "1024",
	KeyWindowHeight:      "768",
	KeyDebugMode:         "false",
	KeyHTTPAddr:          "127.0.0.1:8080",
	KeyStorageDir:        "quiz_data",
	KeyLogLevel:          "info",
	KeyLogFile:           "",
	KeyRecentLimit:       "500",
	KeyRecentSessions:    "10",
	KeyAPIToken:          "",
	KeyReconnectSchedule: "",
	KeyCORSOrigins:       "",
}

// Properties is a KEY=VALUE file of application settings. Process environment
// variables with the same name win over the file but are never written to it.
type Properties struct {
	path   string
	lookup func(string) (string, bool)

	mu     sync.RWMutex
	values map[string]string
}

// Load reads path, creating it with Defaults when it does not exist.
func Load(path string) (*Properties, error) {
	p := &Properties{
		path:   path,
		lookup: os.LookupEnv,
		values: make(map[string]string, len(Defaults)),
	}

	values, err := godotenv.Read(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		values = map[string]string{}
	case err != nil:
		return nil, fmt.Errorf("read properties %s: %w", path, err)
	}

	dirty := false
	for k, v := range values {
		p.values[k] = v
	}
	for k, v := range Defaults {
		if _, ok := p.values[k]; !ok {
			p.values[k] = v
			dirty = true
		}
	}

	if dirty {
		if err := p.save(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Properties) Path() string { return p.path }

func (p *Properties) String(key string) string {
	if v, ok := p.lookup(key); ok {
		return v
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		return v
	}
	return Defaults[key]
}

// Int returns the value as an int, or the key's default when it does not parse.
func (p *Properties) Int(key string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(p.String(key))); err == nil {
		return n
	}
	n, _ := strconv.Atoi(Defaults[key])
	return n
}

func (p *Properties) Bool(key string) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(p.String(key))); err == nil {
		return b
	}
	b, _ := strconv.ParseBool(Defaults[key])
	return b
}

// List splits a comma separated value, dropping empty items.
func (p *Properties) List(key string) []string {
	var out []string
	for _, item := range strings.Split(p.String(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Set stores value under key and saves the file.
func (p *Properties) Set(key, value string) error {
	p.mu.Lock()
	p.values[key] = value
	p.mu.Unlock()

	return p.save()
}

func (p *Properties) save() error {
	p.mu.RLock()
	snapshot := make(map[string]string, len(p.values))
	for k, v := range p.values {
		snapshot[k] = v
	}
	p.mu.RUnlock()

	if dir := filepath.Dir(p.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save properties %s: %w", p.path, err)
		}
	}
	if err := godotenv.Write(snapshot, p.path); err != nil {
		return fmt.Errorf("save properties %s: %w", p.path, err)
	}
	return nil
}
