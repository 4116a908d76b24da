package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app_config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestInitConfigDefaults(t *testing.T) {
	cfg := InitConfig(writeConfig(t, `{}`))

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, GameConfig{
		PromptSelectionTime: 30,
		DrawingTime:         60,
		SubmittingTime:      45,
		VotingTime:          30,
		MaxPhaseTime:        600,
	}, cfg.Game)
	assert.Equal(t, 64, cfg.Websocket.SendBuffer)
	assert.EqualValues(t, 4<<20, cfg.Websocket.MaxMessageBytes)
}

func TestInitConfigFileAndEnv(t *testing.T) {
	t.Setenv("SKETCHBLUFF_PORT", "8080")
	t.Setenv("SKETCHBLUFF_GAME_VOTING_TIME", "20")

	cfg := InitConfig(writeConfig(t, `{
		"log_level": "debug",
		"public_url": "https://sketch.example/room",
		"game": {"drawing_time": 90}
	}`))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://sketch.example/room", cfg.PublicURL)
	assert.Equal(t, 90, cfg.Game.DrawingTime)
	assert.Equal(t, 20, cfg.Game.VotingTime)
}

func TestInitConfigRejectsInvalid(t *testing.T) {
	assert.Panics(t, func() {
		InitConfig(writeConfig(t, `{"game": {"drawing_time": 601}}`))
	})

	assert.Panics(t, func() {
		InitConfig(filepath.Join(t.TempDir(), "missing.json"))
	})
}
