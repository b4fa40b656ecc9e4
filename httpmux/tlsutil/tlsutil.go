// Package tlsutil builds the crypto/tls.Config a curlmulti.Handle
// hands to tls.Client, including discovery of the platform CA bundle
// by a first-existing-wins scan over well-known distro paths.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// caBundleLocations is probed in order; the first path that exists
// wins.
var caBundleLocations = []string{
	"/etc/ssl/certs/ca-certificates.crt",             // Arch, Debian-based, Gentoo
	"/etc/pki/ca-trust/extracted/pem/tls-ca-bundle.pem", // RHEL 7+
	"/etc/pki/tls/certs/ca-bundle.crt",                // RHEL 6
	"/etc/ssl/ca-bundle.pem",                          // openSUSE
	"/etc/ssl/cert.pem",                               // Alpine
}

// DiscoverCABundle returns the first well-known CA bundle path that
// exists on disk, or "" if none do (callers fall back to the Go
// runtime's built-in system root pool).
func DiscoverCABundle() string {
	for _, path := range caBundleLocations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Config is the subset of per-transfer TLS settings needed to build a
// tls.Config; it mirrors curlmulti.TLSConfig without importing it
// (curlmulti imports tlsutil, not the other way around).
type Config struct {
	ServerName string
	VerifyPeer bool
	CABundle   string
}

// Build constructs a tls.Config for one connection. When CABundle is
// empty, DiscoverCABundle is consulted; if that also comes up empty,
// RootCAs is left nil so crypto/tls falls back to the OS trust store.
func Build(cfg Config) (*tls.Config, error) {
	tc := &tls.Config{
		ServerName:         cfg.ServerName,
		InsecureSkipVerify: !cfg.VerifyPeer,
	}
	if !cfg.VerifyPeer {
		return tc, nil
	}

	bundle := cfg.CABundle
	if bundle == "" {
		bundle = DiscoverCABundle()
	}
	if bundle == "" {
		return tc, nil
	}

	pem, err := os.ReadFile(bundle)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: reading CA bundle %s: %w", bundle, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("tlsutil: no certificates parsed from %s", bundle)
	}
	tc.RootCAs = pool
	return tc, nil
}
