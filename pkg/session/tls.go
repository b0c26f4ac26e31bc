package session

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/odvcencio/remoteflow/pkg/config"
)

func buildTLSConfig(cfg config.TLSConfig, target string) (*tls.Config, error) {
	rootCAs, _ := x509.SystemCertPool()
	if rootCAs == nil {
		rootCAs = x509.NewCertPool()
	}
	if caFile := strings.TrimSpace(cfg.CAFile); caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		if ok := rootCAs.AppendCertsFromPEM(pem); !ok {
			return nil, fmt.Errorf("invalid CA bundle %s", caFile)
		}
	}

	var certs []tls.Certificate
	clientCert := strings.TrimSpace(cfg.ClientCert)
	clientKey := strings.TrimSpace(cfg.ClientKey)
	switch {
	case clientCert == "" && clientKey == "":
		// Allow TLS without client cert (server may still reject).
	case clientCert == "" || clientKey == "":
		return nil, fmt.Errorf("client_cert and client_key must be set together")
	default:
		cert, err := tls.LoadX509KeyPair(clientCert, clientKey)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		certs = []tls.Certificate{cert}
	}

	serverName := strings.TrimSpace(cfg.ServerName)
	if serverName == "" {
		serverName = strings.TrimSpace(hostnameFromTarget(target))
	}

	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		Certificates:       certs,
		RootCAs:            rootCAs,
		ServerName:         serverName,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		NextProtos:         []string{"h2"},
	}, nil
}

func hostnameFromTarget(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(target); err == nil && strings.TrimSpace(host) != "" {
		return strings.TrimSpace(host)
	}
	if strings.Contains(target, "/") {
		return ""
	}
	if strings.Contains(target, ":") {
		return ""
	}
	return target
}
