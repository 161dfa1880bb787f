package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mithrel/muse/internal/quicnet"
)

const shutdownTimeout = 10 * time.Second

// Listen describes where and how the API is served.
type Listen struct {
	Addr string
	// TLS enables HTTPS on Addr when set.
	TLS *tls.Config
	// HTTP3 also serves over QUIC on the same port; requires TLS.
	HTTP3 bool
	// HTTP01Addr, with HTTP01Handler, serves ACME HTTP-01 challenges.
	HTTP01Addr    string
	HTTP01Handler http.Handler
}

// Run serves until ctx is cancelled, then shuts all listeners down gracefully.
func (s *Server) Run(ctx context.Context, l Listen) error {
	if l.HTTP3 && l.TLS == nil {
		return quicnet.ErrMissingTLS
	}
	ln, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, l)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, l Listen) error {
	handler := s.Router()
	g, ctx := errgroup.WithContext(ctx)

	if l.HTTP3 {
		h3, err := quicnet.NewHTTP3Server(ln.Addr().String(), l.TLS, handler)
		if err != nil {
			_ = ln.Close()
			return err
		}
		handler = h3.AdvertiseAltSvc(handler)
		g.Go(func() error { return h3.ListenAndServe(ctx) })
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.log),
	}
	if l.TLS != nil {
		srv.TLSConfig = l.TLS
		ln = tls.NewListener(ln, l.TLS)
	}
	s.log.Info("listening", zap.String("addr", ln.Addr().String()), zap.Bool("tls", l.TLS != nil), zap.Bool("http3", l.HTTP3))
	g.Go(func() error { return serveUntil(ctx, srv, ln) })

	if l.HTTP01Addr != "" && l.HTTP01Handler != nil {
		acme := &http.Server{Addr: l.HTTP01Addr, Handler: l.HTTP01Handler, ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error {
			cln, err := net.Listen("tcp", l.HTTP01Addr)
			if err != nil {
				return err
			}
			return serveUntil(ctx, acme, cln)
		})
	}
	return g.Wait()
}

func serveUntil(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
		<-errc
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
