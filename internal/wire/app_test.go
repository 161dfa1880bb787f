package wire

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/muse/internal/config"
	"github.com/mithrel/muse/internal/keys"
	"github.com/mithrel/muse/pkg/api"
)

func testViper(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, config.Load(context.Background(), v))
	v.Set("data_dir", t.TempDir())
	v.Set("log.level", "error")
	return v
}

func TestBuildAppOpensSQLite(t *testing.T) {
	v := testViper(t)
	app, err := BuildApp(context.Background(), v)
	require.NoError(t, err)
	defer app.Close()

	u, err := app.Service.SignUp(context.Background(), "ada@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	docs, _, err := app.Service.ListDocuments(context.Background(), u.ID, api.ListQuery{})
	require.NoError(t, err)
	require.Len(t, docs, 1, "welcome document is on by default")
	assert.FileExists(t, filepath.Join(v.GetString("data_dir"), "muse.db"))
}

func TestBuildAppRejectsInvalidConfig(t *testing.T) {
	v := testViper(t)
	v.Set("log.format", "xml")
	_, err := BuildApp(context.Background(), v)
	require.Error(t, err)
}

func TestTokens(t *testing.T) {
	v := testViper(t)
	v.Set("db_url", "mem://")
	app, err := BuildApp(context.Background(), v)
	require.NoError(t, err)
	defer app.Close()
	app.Keys = &keys.MemoryStore{}

	_, err = app.Tokens()
	require.Error(t, err)

	v.Set("auth.keyring", true)
	tm, err := app.Tokens()
	require.NoError(t, err)
	tok, err := tm.GenerateToken("u1", "a@b.co")
	require.NoError(t, err)

	again, err := app.Tokens()
	require.NoError(t, err)
	claims, err := again.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())

	v.Set("auth.secret", "0123456789abcdef")
	fromCfg, err := app.Tokens()
	require.NoError(t, err)
	_, err = fromCfg.ValidateToken(tok)
	assert.Error(t, err)
}
