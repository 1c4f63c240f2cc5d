package domain

import (
	"fmt"
	"strings"
	"time"
)

// Defaults for the artifact cache and its HTTP endpoint.
const (
	DefaultPattern           = "*.json"
	DefaultDebounce          = 100 * time.Millisecond
	DefaultReconcileInterval = 30 * time.Second
	DefaultIdentityField     = "contractName"
	DefaultDeploymentsField  = "networks"
	DefaultNotifyBuffer      = 256
	DefaultJournalSize       = 500

	DefaultHost     = "127.0.0.1"
	DefaultPort     = 3030
	DefaultEndpoint = "contracts"
)

// ParserConfig names the document fields the parsers read.
type ParserConfig struct {
	// IdentityField is the top-level field holding the component name.
	IdentityField string

	// DeploymentsField is the top-level field holding per-network records.
	DeploymentsField string
}

// DefaultParserConfig returns the Truffle artifact layout.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		IdentityField:    DefaultIdentityField,
		DeploymentsField: DefaultDeploymentsField,
	}
}

// CacheConfig configures the artifact cache.
type CacheConfig struct {
	// Roots are the directories to scan and watch.
	Roots []string

	// Pattern is a glob matched against file base names.
	Pattern string

	// Debounce is the quiescence window for coalescing writes to one path.
	Debounce time.Duration

	// ReconcileInterval is how often the filesystem is rescanned as a
	// backstop for missed watch events. Zero disables it.
	ReconcileInterval time.Duration

	// NotifyBuffer is the default per-subscriber notification buffer.
	NotifyBuffer int

	// Parser configures document field names.
	Parser ParserConfig
}

// DefaultCacheConfig returns defaults for everything but Roots.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Pattern:           DefaultPattern,
		Debounce:          DefaultDebounce,
		ReconcileInterval: DefaultReconcileInterval,
		NotifyBuffer:      DefaultNotifyBuffer,
		Parser:            DefaultParserConfig(),
	}
}

// Validate checks the configuration is usable.
func (c *CacheConfig) Validate() error {
	if len(c.Roots) == 0 {
		return ErrNoRoots
	}
	for _, root := range c.Roots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("%w: empty root path", ErrInvalidInput)
		}
	}
	if c.Pattern == "" {
		return fmt.Errorf("%w: empty file pattern", ErrInvalidInput)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("%w: negative debounce window", ErrInvalidInput)
	}
	if c.ReconcileInterval < 0 {
		return fmt.Errorf("%w: negative reconcile interval", ErrInvalidInput)
	}
	if c.Parser.IdentityField == "" {
		return fmt.Errorf("%w: empty identity field", ErrInvalidInput)
	}
	if c.Parser.DeploymentsField == "" {
		return fmt.Errorf("%w: empty deployments field", ErrInvalidInput)
	}
	return nil
}

// ServerConfig configures the HTTP endpoint.
type ServerConfig struct {
	Host     string
	Port     int
	Endpoint string
}

// DefaultServerConfig returns the default listen address and endpoint.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Endpoint: DefaultEndpoint,
	}
}

// Validate checks the endpoint is usable. Port 0 asks for any free port.
func (c ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidInput, c.Port)
	}
	if strings.Trim(c.Endpoint, "/") == "" {
		return fmt.Errorf("%w: empty endpoint", ErrInvalidInput)
	}
	return nil
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Path returns the endpoint as an absolute URL path.
func (c ServerConfig) Path() string {
	return "/" + strings.Trim(c.Endpoint, "/")
}
