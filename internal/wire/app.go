package wire

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mithrel/muse/internal/auth"
	"github.com/mithrel/muse/internal/config"
	"github.com/mithrel/muse/internal/db"
	"github.com/mithrel/muse/internal/keys"
	"github.com/mithrel/muse/internal/logging"
	"github.com/mithrel/muse/internal/service"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg     *viper.Viper
	Log     *zap.Logger
	Store   *db.Store
	Service *service.Service
	// Keys backs auth.keyring; tests swap in a keys.MemoryStore.
	Keys keys.KeyStore
}

// BuildApp wires dependencies with the provided config.
func BuildApp(ctx context.Context, cfg *viper.Viper) (*App, error) {
	if err := config.CheckConfigValidity(cfg); err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.GetString("log.level"),
		Format: cfg.GetString("log.format"),
	})
	if err != nil {
		return nil, err
	}
	store, err := db.Open(ctx, config.ResolveDBURL(cfg))
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &App{
		Cfg:     cfg,
		Log:     logger,
		Store:   store,
		Service: service.New(store, logger, service.WithWelcomeDocument(cfg.GetBool("user.welcome_document"))),
		Keys:    &keys.KeyringStore{},
	}, nil
}

// Tokens builds the session token manager from auth.secret, falling back to
// a keyring-held secret when auth.keyring is set.
func (a *App) Tokens() (*auth.TokenManager, error) {
	secret := strings.TrimSpace(a.Cfg.GetString("auth.secret"))
	if secret == "" && a.Cfg.GetBool("auth.keyring") {
		s, err := keys.SigningSecret(a.Keys)
		if err != nil {
			return nil, fmt.Errorf("keyring: %w", err)
		}
		secret = s
	}
	if secret == "" {
		return nil, fmt.Errorf("auth.secret is not set")
	}
	return auth.NewTokenManager(secret, a.Cfg.GetDuration("auth.token_ttl")), nil
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	err := a.Store.Close()
	_ = a.Log.Sync()
	return err
}
