package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validViper() *viper.Viper {
	v := viper.New()
	applyDefaults(v)
	v.Set("data_dir", "/tmp/muse")
	return v
}

func TestCheckConfigValidityValid(t *testing.T) {
	v := validViper()
	if err := CheckConfigValidity(v); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestCheckConfigValidityInvalid(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "")
	v.Set("db_url", "postgres://db")
	v.Set("http_addr", "nowhere")
	v.Set("auth.token_ttl", "0s")
	v.Set("autosave.interval", "soon")
	v.Set("preview.width", 0)
	v.Set("list.page_size", 0)
	v.Set("log.level", "chatty")
	v.Set("log.format", "xml")
	v.Set("tls.mode", "file")
	v.Set("http3.enabled", true)

	err := CheckConfigValidity(v)
	if err == nil {
		t.Fatalf("expected error for invalid config")
	}

	msg := err.Error()
	expected := []string{
		"data_dir is required",
		"db_url must start with sqlite:// or mem://",
		"http_addr is not host:port",
		"auth.token_ttl must be a positive duration",
		"autosave.interval must be a positive duration",
		"preview.width must be greater than 0",
		"list.page_size must be greater than 0",
		`unknown log level "chatty"`,
		`log.format must be console or json, got "xml"`,
		"tls.cert_file is required when tls.mode is file",
		"tls.key_file is required when tls.mode is file",
	}
	for _, want := range expected {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error to contain %q, got %q", want, msg)
		}
	}
}

func TestCheckConfigValidityTLS(t *testing.T) {
	v := validViper()
	v.Set("tls.mode", "acme")
	err := CheckConfigValidity(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tls.domain is required")
	assert.Contains(t, err.Error(), "tls.email is required")

	v = validViper()
	v.Set("tls.mode", "carrier-pigeon")
	require.Error(t, CheckConfigValidity(v))

	v = validViper()
	v.Set("http3.enabled", true)
	err = CheckConfigValidity(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http3.enabled requires tls.mode")

	v.Set("tls.mode", "self-signed")
	require.NoError(t, CheckConfigValidity(v))
}

func TestCheckServeConfig(t *testing.T) {
	v := validViper()
	require.Error(t, CheckServeConfig(v))
	v.Set("auth.keyring", true)
	require.NoError(t, CheckServeConfig(v))
	v.Set("auth.secret", "short")
	require.Error(t, CheckServeConfig(v))
	v.Set("auth.secret", "0123456789abcdef")
	require.NoError(t, CheckServeConfig(v))
}

func TestRenderDefaultTOMLParses(t *testing.T) {
	out := RenderDefaultTOML()
	assert.True(t, strings.HasPrefix(out, "# Muse configuration (TOML)\n"))
	assert.Contains(t, out, "[tls]\n")

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)))
	for _, o := range GetConfigOptions() {
		assert.True(t, v.IsSet(o.Key), o.Key)
	}
	assert.Equal(t, "off", v.GetString("tls.mode"))
	assert.Equal(t, 80, v.GetInt("preview.width"))
}

func TestUpdateTOML(t *testing.T) {
	existing := "http_addr = \":9000\"\nlegacy = 1\n[log]\nlevel = \"debug\"\n"
	out, changed := UpdateTOML(existing)
	require.True(t, changed)
	assert.Contains(t, out, "http_addr = \":9000\"")
	assert.Contains(t, out, "# OUTDATED: option removed from config schema\n# legacy = 1")
	assert.Contains(t, out, "# Added by config update")
	assert.Contains(t, out, "[tls]")
	assert.Equal(t, 1, strings.Count(out, "level = "))

	again, changed := UpdateTOML(RenderDefaultTOML())
	assert.False(t, changed)
	assert.Equal(t, RenderDefaultTOML(), again)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr = \"127.0.0.1:9999\"\n[list]\npage_size = 7\n"), 0o600))
	t.Setenv("MUSE_LIST_PAGE_SIZE", "11")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, Load(context.Background(), v))
	assert.Equal(t, "127.0.0.1:9999", v.GetString("http_addr"))
	assert.Equal(t, 11, v.GetInt("list.page_size"))
	assert.Equal(t, "dracula", v.GetString("preview.style"))
}

func TestResolveDBURL(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "/var/lib/muse")
	assert.Equal(t, "sqlite:///var/lib/muse/muse.db", ResolveDBURL(v))
	v.Set("db_url", "mem://")
	assert.Equal(t, "mem://", ResolveDBURL(v))
	assert.Equal(t, "/var/lib/muse/certmagic", ResolveCertStorage(v))
}
