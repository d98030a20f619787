package kafka_storage

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// GetTLSConfig builds a client TLS config trusting the CA bundle at
// trustStorePath. An empty path means no TLS.
func GetTLSConfig(trustStorePath string) (*tls.Config, error) {
	if trustStorePath == "" {
		return nil, nil
	}

	caCert, err := os.ReadFile(trustStorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read trustStorePath: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("no certificates found in %s", trustStorePath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// saslMechanism keeps a nil *plain.Mechanism from becoming a non-nil
// interface value.
func saslMechanism(m *plain.Mechanism) sasl.Mechanism {
	if m == nil {
		return nil
	}
	return m
}
