package cli

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mithrel/muse/internal/config"
	"github.com/mithrel/muse/internal/quicnet"
	"github.com/mithrel/muse/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			v := app.Cfg
			applyConfigFlagOverrides(cmd, v, map[string]string{
				"listen": "http_addr",
				"tls":    "tls.mode",
				"http3":  "http3.enabled",
			})
			if err := config.CheckServeConfig(v); err != nil {
				return err
			}
			tokens, err := app.Tokens()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			listen, err := buildListen(ctx, v, app.Log)
			if err != nil {
				return err
			}
			srv := server.New(server.Options{
				Service:  app.Service,
				Tokens:   tokens,
				Logger:   app.Log,
				PageSize: v.GetInt("list.page_size"),
			})
			scheme := "http"
			if listen.TLS != nil {
				scheme = "https"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "muse API listening on %s://%s\n", scheme, listen.Addr)
			return srv.Run(ctx, listen)
		},
	}
	cmd.Flags().String("listen", "", "listen address (overrides http_addr)")
	cmd.Flags().String("tls", "", "TLS mode: off, file, self-signed, acme (overrides tls.mode)")
	cmd.Flags().Bool("http3", false, "also serve HTTP/3 (overrides http3.enabled)")
	_ = cmd.RegisterFlagCompletionFunc("tls", completeFormats(config.TLSOff, config.TLSFile, config.TLSSelfSigned, config.TLSACME))
	return cmd
}

// buildListen turns the tls.* and http3 settings into a server.Listen.
func buildListen(ctx context.Context, v *viper.Viper, log *zap.Logger) (server.Listen, error) {
	l := server.Listen{Addr: v.GetString("http_addr"), HTTP3: v.GetBool("http3.enabled")}
	var (
		conf *tls.Config
		err  error
	)
	switch config.TLSMode(v) {
	case config.TLSOff:
		return l, nil
	case config.TLSFile:
		conf, err = quicnet.BuildFileTLS(v.GetString("tls.cert_file"), v.GetString("tls.key_file"))
	case config.TLSSelfSigned:
		log.Warn("serving with a self-signed certificate; clients must skip verification")
		conf, err = quicnet.SelfSignedTLS()
	case config.TLSACME:
		var challenge http.Handler
		challengeAddr := v.GetString("tls.http01_addr")
		conf, challenge, err = quicnet.BuildCertMagicTLS(ctx, quicnet.CertMagicConfig{
			Domain:       v.GetString("tls.domain"),
			Email:        v.GetString("tls.email"),
			StorageDir:   config.ResolveCertStorage(v),
			EnableHTTP01: challengeAddr != "",
			Logger:       log.Named("certmagic"),
		})
		l.HTTP01Addr, l.HTTP01Handler = challengeAddr, challenge
	default:
		return l, fmt.Errorf("unknown tls.mode %q", v.GetString("tls.mode"))
	}
	if err != nil {
		return l, fmt.Errorf("tls: %w", err)
	}
	l.TLS = conf
	return l, nil
}
