package grpcservice

import (
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
)

const (
	tlsKeyFile  = "key.pem"
	tlsCertFile = "cert.pem"
	tlsFolder   = "tls"

	macaroonsLocation = "linkedbtcd"
	macaroonsDbFolder = "macaroons.db"
	macaroonsFolder   = "macaroons"

	tlsCertValidity = 14 * 30 * 24 * time.Hour
)

type Config struct {
	Datadir           string
	Port              uint32
	NoTLS             bool
	NoMacaroons       bool
	TLSExtraIPs       []string
	TLSExtraDomains   []string
	HeartbeatInterval int64
	EnableMetrics     bool
}

func (c Config) Validate() error {
	if c.Port == 0 {
		return fmt.Errorf("missing port")
	}
	lis, err := net.Listen("tcp", c.address())
	if err != nil {
		return fmt.Errorf("invalid port: %s", err)
	}
	// nolint:all
	lis.Close()

	if !c.NoTLS && len(c.Datadir) <= 0 {
		return fmt.Errorf("missing datadir for TLS key pair")
	}
	if !c.NoMacaroons && len(c.Datadir) <= 0 {
		return fmt.Errorf("missing datadir for macaroons")
	}
	for _, ip := range c.TLSExtraIPs {
		if net.ParseIP(ip) == nil {
			return fmt.Errorf("invalid tls extra ip %s", ip)
		}
	}
	return nil
}

func (c Config) insecure() bool {
	return c.NoTLS
}

func (c Config) address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) gatewayAddress() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}

func (c Config) macaroonsDatadir() string {
	return filepath.Join(c.Datadir, macaroonsFolder)
}

func (c Config) macaroonsDbDir() string {
	return filepath.Join(c.Datadir, macaroonsDbFolder)
}

func (c Config) tlsDatadir() string {
	return filepath.Join(c.Datadir, tlsFolder)
}

func (c Config) tlsConfig() (*tls.Config, error) {
	if c.insecure() {
		return nil, nil
	}
	certPath := filepath.Join(c.tlsDatadir(), tlsCertFile)
	keyPath := filepath.Join(c.tlsDatadir(), tlsKeyFile)
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %s", err)
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h2", "http/1.1"},
	}, nil
}

// generateTLSKeyCert creates a self signed key pair in datadir unless one
// already exists.
func generateTLSKeyCert(datadir string, extraIPs, extraDomains []string) error {
	certPath := filepath.Join(datadir, tlsCertFile)
	keyPath := filepath.Join(datadir, tlsKeyFile)
	if pathExists(certPath) && pathExists(keyPath) {
		return nil
	}
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return err
	}

	hosts := append([]string{"localhost", "127.0.0.1"}, extraIPs...)
	hosts = append(hosts, extraDomains...)
	cert, key, err := btcutil.NewTLSCertPair(
		"linkedbtcd autogenerated cert", time.Now().Add(tlsCertValidity), hosts,
	)
	if err != nil {
		return fmt.Errorf("failed to generate TLS key pair: %s", err)
	}
	if err := os.WriteFile(certPath, cert, 0644); err != nil {
		return err
	}
	if err := os.WriteFile(keyPath, key, 0600); err != nil {
		// nolint:all
		os.Remove(certPath)
		return err
	}
	return nil
}
