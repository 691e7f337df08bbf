package webserver

import (
	"crypto/tls"
	"log"
	"os"
	"sync"
	"time"
)

// CertReloader serves the cert/key pair from disk and picks up renewed
// files without a restart, so certbot renewals don't drop the site.
type CertReloader struct {
	certFile string
	keyFile  string

	mu      sync.RWMutex
	cert    *tls.Certificate
	certMod time.Time
	keyMod  time.Time
}

func NewCertReloader(certFile, keyFile string) (*CertReloader, error) {
	r := &CertReloader{certFile: certFile, keyFile: keyFile}
	if err := r.reload(); err != nil {
		return nil, err
	}
	go r.watch()
	return r, nil
}

func (r *CertReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	if info, err := os.Stat(r.certFile); err == nil {
		r.certMod = info.ModTime()
	}
	if info, err := os.Stat(r.keyFile); err == nil {
		r.keyMod = info.ModTime()
	}
	log.Printf("TLS certificate loaded from %s", r.certFile)
	return nil
}

func (r *CertReloader) watch() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		certInfo, err := os.Stat(r.certFile)
		if err != nil {
			log.Printf("stat %s: %v", r.certFile, err)
			continue
		}
		keyInfo, err := os.Stat(r.keyFile)
		if err != nil {
			log.Printf("stat %s: %v", r.keyFile, err)
			continue
		}
		if certInfo.ModTime().After(r.certMod) || keyInfo.ModTime().After(r.keyMod) {
			if err := r.reload(); err != nil {
				log.Printf("reload TLS certificate: %v", err)
			}
		}
	}
}

func (r *CertReloader) Config() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			r.mu.RLock()
			defer r.mu.RUnlock()
			return r.cert, nil
		},
	}
}
