// Package quicnet builds TLS configurations for the API server and serves it
// over HTTP/3.
package quicnet

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caddyserver/certmagic"
	"go.uber.org/zap"
)

var ErrMissingTLS = errors.New("missing TLS configuration")

// CertMagicConfig configures automatic certificate management with CertMagic.
type CertMagicConfig struct {
	Domain     string
	Email      string
	StorageDir string
	CA         string // optional; defaults to Let's Encrypt prod
	// EnableHTTP01 returns a handler for HTTP-01 challenges the caller must serve on :80.
	EnableHTTP01 bool
	Logger       *zap.Logger
}

// BuildCertMagicTLS provisions/loads certificates via CertMagic and returns a
// TLS config plus an HTTP handler for HTTP-01 challenges.
func BuildCertMagicTLS(ctx context.Context, cfg CertMagicConfig) (*tls.Config, http.Handler, error) {
	if cfg.Domain == "" {
		return nil, nil, errors.New("domain is required")
	}
	if cfg.StorageDir == "" {
		return nil, nil, errors.New("storage dir is required")
	}
	if err := os.MkdirAll(cfg.StorageDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("cert storage: %w", err)
	}

	cm := certmagic.NewDefault()
	cm.Storage = &certmagic.FileStorage{Path: cfg.StorageDir}
	if cfg.Logger != nil {
		cm.Logger = cfg.Logger
	}
	ai := certmagic.NewACMEIssuer(cm, certmagic.ACMEIssuer{
		CA:                   ifEmpty(cfg.CA, certmagic.LetsEncryptProductionCA),
		Email:                cfg.Email,
		Agreed:               true,
		DisableHTTPChallenge: !cfg.EnableHTTP01,
		Logger:               cm.Logger,
	})
	cm.Issuers = []certmagic.Issuer{ai}

	if err := cm.ManageSync(ctx, []string{cfg.Domain}); err != nil {
		return nil, nil, err
	}

	tlsConf := cm.TLSConfig()
	tlsConf.NextProtos = withHTTPProtos(tlsConf.NextProtos)
	tlsConf.MinVersion = tls.VersionTLS12

	if cfg.EnableHTTP01 {
		return tlsConf, ai.HTTPChallengeHandler(http.NotFoundHandler()), nil
	}
	return tlsConf, nil, nil
}

// withHTTPProtos makes sure h2 and http/1.1 are offered after whatever is there.
func withHTTPProtos(protos []string) []string {
	for _, p := range []string{"h2", "http/1.1"} {
		has := false
		for _, q := range protos {
			if q == p {
				has = true
				break
			}
		}
		if !has {
			protos = append(protos, p)
		}
	}
	return protos
}

func ifEmpty(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// ParsePort extracts an integer port from a host:port address; returns 0 if absent.
func ParsePort(addr string) int {
	if addr == "" {
		return 0
	}
	lastColon := strings.LastIndex(addr, ":")
	if lastColon < 0 || lastColon == len(addr)-1 {
		return 0
	}
	p, _ := strconv.Atoi(addr[lastColon+1:])
	return p
}

// BuildFileTLS loads a certificate from PEM files for BYO certs.
func BuildFileTLS(certFile, keyFile string) (*tls.Config, error) {
	if certFile == "" || keyFile == "" {
		return nil, errors.New("both certFile and keyFile are required")
	}
	c, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}
	now := time.Now()
	for i, b := range c.Certificate {
		cert, err := x509.ParseCertificate(b)
		if err != nil {
			return nil, fmt.Errorf("invalid certificate at index %d: %w", i, err)
		}
		if now.Before(cert.NotBefore) {
			return nil, fmt.Errorf("certificate not yet valid (starts %s)", cert.NotBefore)
		}
		if now.After(cert.NotAfter) {
			return nil, fmt.Errorf("certificate expired on %s", cert.NotAfter)
		}
	}
	return &tls.Config{
		Certificates: []tls.Certificate{c},
		NextProtos:   withHTTPProtos(nil),
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// SelfSignedTLS is for development only. The certificate covers localhost,
// the loopback addresses and any extra hosts given.
func SelfSignedTLS(hosts ...string) (*tls.Config, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, err
	}
	templ := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"muse development"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(7 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			templ.IPAddresses = append(templ.IPAddresses, ip)
		} else if h != "" {
			templ.DNSNames = append(templ.DNSNames, h)
		}
	}
	der, err := x509.CreateCertificate(rand.Reader, templ, templ, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	cert := tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   withHTTPProtos(nil),
		MinVersion:   tls.VersionTLS12,
	}, nil
}
