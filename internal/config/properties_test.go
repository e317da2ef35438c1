package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesFileWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "quizbox.properties")

	p, err := Load(path)
	require.NoError(t, err)

	stored, err := godotenv.Read(path)
	require.NoError(t, err)
	require.Equal(t, Defaults, stored)

	require.Equal(t, "Quiz Box", p.String(KeyAppTitle))
	require.Equal(t, 1024, p.Int(KeyWindowWidth))
	require.False(t, p.Bool(KeyDebugMode))
	require.Equal(t, "", p.String(KeyAPIToken))
}

func TestLoad_KeepsValuesAndFillsMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizbox.properties")
	require.NoError(t, os.WriteFile(path, []byte("DB_URL=postgres://db:5432/quiz\nDEBUG_MODE=true\nCUSTOM=1\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://db:5432/quiz", p.String(KeyDBURL))
	require.True(t, p.Bool(KeyDebugMode))
	require.Equal(t, 500, p.Int(KeyRecentLimit))

	stored, err := godotenv.Read(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://db:5432/quiz", stored[KeyDBURL])
	require.Equal(t, "1", stored["CUSTOM"])
	require.Equal(t, "quiz_data", stored[KeyStorageDir])
}

func TestProperties_EnvOverridesWithoutSaving(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizbox.properties")
	t.Setenv(KeyHTTPAddr, ":9999")

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", p.String(KeyHTTPAddr))

	require.NoError(t, p.Set(KeyAppTitle, "Trivia"))

	stored, err := godotenv.Read(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", stored[KeyHTTPAddr])
	require.Equal(t, "Trivia", stored[KeyAppTitle])
}

func TestProperties_TypedFallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizbox.properties")
	require.NoError(t, os.WriteFile(path, []byte("RECENT_LIMIT=lots\nDEBUG_MODE=maybe\nCORS_ORIGINS= http://a.test , ,http://b.test\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 500, p.Int(KeyRecentLimit))
	require.False(t, p.Bool(KeyDebugMode))
	require.Equal(t, []string{"http://a.test", "http://b.test"}, p.List(KeyCORSOrigins))
	require.Empty(t, p.List(KeyReconnectSchedule))
}

func TestProperties_SetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizbox.properties")

	p, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, p.Set(KeyWindowX, "250"))

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 250, again.Int(KeyWindowX))
}
