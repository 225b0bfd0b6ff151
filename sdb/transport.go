package sdb

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
)

// newHTTPClient cria o *http.Client padrão aplicando as opções de TLS.
func newHTTPClient(cfg Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg := tlsConfig(cfg); tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}
	return &http.Client{Transport: transport, Timeout: cfg.Timeout}
}

// tlsConfig retorna nil quando as duas verificações estão ligadas.
func tlsConfig(cfg Config) *tls.Config {
	switch {
	case !cfg.SkipVerifyPeer && !cfg.SkipVerifyHost:
		return nil
	case cfg.SkipVerifyPeer && cfg.SkipVerifyHost:
		return &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	case cfg.SkipVerifyPeer:
		// só o hostname é conferido
		return &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec
			VerifyConnection: func(cs tls.ConnectionState) error {
				if len(cs.PeerCertificates) == 0 {
					return errors.New("sdb: server sent no certificate")
				}
				return cs.PeerCertificates[0].VerifyHostname(cs.ServerName)
			},
		}
	default:
		// só a cadeia é conferida
		return &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec
			VerifyConnection: func(cs tls.ConnectionState) error {
				if len(cs.PeerCertificates) == 0 {
					return errors.New("sdb: server sent no certificate")
				}
				opts := x509.VerifyOptions{Intermediates: x509.NewCertPool()}
				for _, cert := range cs.PeerCertificates[1:] {
					opts.Intermediates.AddCert(cert)
				}
				_, err := cs.PeerCertificates[0].Verify(opts)
				return err
			},
		}
	}
}
