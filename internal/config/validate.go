package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/mithrel/muse/internal/logging"
)

// TLS modes accepted by tls.mode.
const (
	TLSOff        = "off"
	TLSFile       = "file"
	TLSSelfSigned = "self-signed"
	TLSACME       = "acme"
)

// CheckConfigValidity reports every problem found, not just the first.
func CheckConfigValidity(v *viper.Viper) error {
	var err error
	add := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		add("data_dir is required")
	}
	if u := strings.TrimSpace(v.GetString("db_url")); u != "" &&
		!strings.HasPrefix(u, "sqlite://") && !strings.HasPrefix(u, "mem://") {
		add("db_url must start with sqlite:// or mem://")
	}
	if addr := v.GetString("http_addr"); addr != "" {
		if _, _, e := net.SplitHostPort(addr); e != nil {
			add("http_addr is not host:port: %v", e)
		}
	}
	if d := v.GetDuration("auth.token_ttl"); d <= 0 {
		add("auth.token_ttl must be a positive duration")
	}
	if d := v.GetDuration("autosave.interval"); d <= 0 {
		add("autosave.interval must be a positive duration")
	}
	if v.GetInt("preview.width") <= 0 {
		add("preview.width must be greater than 0")
	}
	if v.GetInt("list.page_size") <= 0 {
		add("list.page_size must be greater than 0")
	}
	if _, e := logging.ParseLevel(v.GetString("log.level")); e != nil {
		add("log.level: %v", e)
	}
	switch f := strings.ToLower(v.GetString("log.format")); f {
	case "", "console", "json":
	default:
		add("log.format must be console or json, got %q", f)
	}

	switch mode := TLSMode(v); mode {
	case TLSOff, TLSSelfSigned:
	case TLSFile:
		if v.GetString("tls.cert_file") == "" {
			add("tls.cert_file is required when tls.mode is file")
		}
		if v.GetString("tls.key_file") == "" {
			add("tls.key_file is required when tls.mode is file")
		}
	case TLSACME:
		if v.GetString("tls.domain") == "" {
			add("tls.domain is required when tls.mode is acme")
		}
		if v.GetString("tls.email") == "" {
			add("tls.email is required when tls.mode is acme")
		}
	default:
		add("tls.mode must be one of off, file, self-signed, acme, got %q", mode)
	}
	if v.GetBool("http3.enabled") && TLSMode(v) == TLSOff {
		add("http3.enabled requires tls.mode other than off")
	}
	return err
}

// CheckServeConfig adds the requirements of muse serve on top of CheckConfigValidity.
func CheckServeConfig(v *viper.Viper) error {
	err := CheckConfigValidity(v)
	secret := v.GetString("auth.secret")
	switch {
	case secret == "" && v.GetBool("auth.keyring"):
	case len(secret) < 16:
		err = multierr.Append(err, errors.New("auth.secret must be at least 16 characters (or set auth.keyring = true)"))
	}
	return err
}

// TLSMode returns the normalized tls.mode.
func TLSMode(v *viper.Viper) string {
	m := strings.ToLower(strings.TrimSpace(v.GetString("tls.mode")))
	if m == "" {
		return TLSOff
	}
	return m
}
