package api

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"sync"
)

// TLSFiles names the certificate and key the host serves with.
type TLSFiles struct {
	CertFile string
	KeyFile  string
}

// TLSFilesFromEnv overrides fallback with SDUI_TLS_CERT and SDUI_TLS_KEY when
// they are set.
func TLSFilesFromEnv(fallback TLSFiles) TLSFiles {
	files := fallback
	if v := os.Getenv("SDUI_TLS_CERT"); v != "" {
		files.CertFile = v
	}
	if v := os.Getenv("SDUI_TLS_KEY"); v != "" {
		files.KeyFile = v
	}
	return files
}

var (
	tlsMu     sync.RWMutex
	serverTLS *tls.Config
)

// InitTLS loads the key pair once at startup. Naming neither file serves plain
// HTTP; naming only one, or an unreadable pair, is an error.
func InitTLS(files TLSFiles) error {
	tlsMu.Lock()
	defer tlsMu.Unlock()
	serverTLS = nil

	switch {
	case files.CertFile == "" && files.KeyFile == "":
		return nil
	case files.CertFile == "" || files.KeyFile == "":
		return errors.New("tls: both certificate and key are required")
	}

	cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
	if err != nil {
		return fmt.Errorf("tls: failed to load key pair: %w", err)
	}
	serverTLS = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	return nil
}

// LoadTLSConfig returns a copy of the loaded server config, or nil for plain HTTP.
func LoadTLSConfig() *tls.Config {
	tlsMu.RLock()
	defer tlsMu.RUnlock()
	if serverTLS == nil {
		return nil
	}
	return serverTLS.Clone()
}
