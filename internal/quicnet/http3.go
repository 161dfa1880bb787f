package quicnet

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"

	"github.com/quic-go/quic-go/http3"
)

// HTTP3Server serves a handler over QUIC next to a TLS listener.
type HTTP3Server struct {
	srv *http3.Server
}

// NewHTTP3Server prepares an HTTP/3 server on addr (UDP).
func NewHTTP3Server(addr string, tlsConf *tls.Config, h http.Handler) (*HTTP3Server, error) {
	if tlsConf == nil {
		return nil, ErrMissingTLS
	}
	return &HTTP3Server{srv: &http3.Server{
		Addr:      addr,
		Port:      ParsePort(addr),
		Handler:   h,
		TLSConfig: http3.ConfigureTLSConfig(tlsConf.Clone()),
	}}, nil
}

// ListenAndServe blocks until ctx is done or the listener fails.
func (s *HTTP3Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- s.srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		_ = s.srv.Close()
		<-errc
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// AdvertiseAltSvc sets the Alt-Svc header so TLS clients can upgrade to HTTP/3.
func (s *HTTP3Server) AdvertiseAltSvc(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ProtoMajor < 3 {
			_ = s.srv.SetQUICHeaders(w.Header())
		}
		next.ServeHTTP(w, r)
	})
}

// NewHTTP3Client returns an HTTP client that speaks HTTP/3 only.
func NewHTTP3Client(tlsConf *tls.Config) (*http.Client, func() error) {
	rt := &http3.RoundTripper{TLSClientConfig: tlsConf}
	return &http.Client{Transport: rt}, rt.Close
}
