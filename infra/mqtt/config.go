package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Config defines the connection parameters for the Paho MQTT transport.
type Config struct {
	Broker       string `json:"broker"`
	ClientPrefix string `json:"client_prefix"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	// TopicPrefix is prepended to room names to form topics.
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	UseTLS      bool   `json:"use_tls"`
	ClientCert  string `json:"client_cert"`
	ClientKey   string `json:"client_key"`
	CABundle    string `json:"ca_bundle"`
	// ConnectTimeoutS bounds one connection attempt.
	ConnectTimeoutS int `json:"connect_timeout_s"`
	// MaxRetries bounds automatic reconnection attempts after a drop.
	MaxRetries int `json:"max_retries"`
	// BackoffMS is the initial reconnect delay; it doubles per attempt up to
	// MaxBackoffMS.
	BackoffMS    int `json:"backoff_ms"`
	MaxBackoffMS int `json:"max_backoff_ms"`

	TLSConfig *tls.Config `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientPrefix == "" {
		c.ClientPrefix = "lifeline"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "hospital/rooms"
	}
	if c.ConnectTimeoutS == 0 {
		c.ConnectTimeoutS = 5
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 1000
	}
	if c.MaxBackoffMS == 0 {
		c.MaxBackoffMS = 5000
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	return nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
