package transport

import (
	"crypto/tls"
	"fmt"
)

// NewServerTLSConfig returns the listener TLS configuration for cert.
// MUD clients commonly lag behind, so TLS 1.2 is accepted.
func NewServerTLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
		},
	}
}

// LoadTLSConfig loads a PEM certificate and key for a TLS listener.
func LoadTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTLSConfig, err)
	}
	return NewServerTLSConfig(cert), nil
}
