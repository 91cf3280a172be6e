package lcu

import (
	"crypto/tls"
	"sync"

	"github.com/0xmhha/lcu-keeper/pkg/logger"
)

var insecureOnce sync.Once

// TLSConfig returns the TLS configuration for the local client API.
//
// The client serves a self-signed certificate, so verification is off. The
// first call logs a warning; later calls are silent.
func TLSConfig(log logger.Logger) *tls.Config {
	insecureOnce.Do(func() {
		log.Warn("certificate verification disabled for the local client API")
	})
	// #nosec G402: the peer is a loopback service with a self-signed certificate
	return &tls.Config{InsecureSkipVerify: true} // nolint:gosec
}
