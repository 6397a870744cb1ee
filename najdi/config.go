package najdi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultRetries is the number of extra attempts after a failed send.
	DefaultRetries = 2
	// DefaultTimeout bounds every HTTP request made to the portal.
	DefaultTimeout = 30 * time.Second

	maxCredentialLength = 50
)

// ErrInvalidCredentials is returned when username or password is empty or
// longer than 50 characters.
var ErrInvalidCredentials = errors.New("username and password must be 1 to 50 characters")

// ErrInvalidRetries is returned for a negative retry budget.
var ErrInvalidRetries = errors.New("retries must not be negative")

// Config holds the settings of a Provider. Build one with NewConfigBuilder.
type Config struct {
	username   string
	password   string
	retries    int
	retryDelay time.Duration
	endpoints  Endpoints
	timeout    time.Duration
	httpClient *http.Client
	portal     Portal
	logger     *slog.Logger
}

func (c *Config) validate() error {
	if c.portal == nil {
		if n := len([]rune(c.username)); n < 1 || n > maxCredentialLength {
			return ErrInvalidCredentials
		}
		if n := len([]rune(c.password)); n < 1 || n > maxCredentialLength {
			return ErrInvalidCredentials
		}
	}
	if c.retries < 0 {
		return ErrInvalidRetries
	}
	return nil
}

func (c *Config) setDefaults() {
	c.endpoints = c.endpoints.withDefaults()
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder preloaded with the defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: Config{retries: DefaultRetries}}
}

// WithCredentials sets the portal account. Required unless a Portal is
// supplied with WithPortal.
func (b *ConfigBuilder) WithCredentials(username, password string) *ConfigBuilder {
	b.config.username = username
	b.config.password = password
	return b
}

func (b *ConfigBuilder) WithRetries(n int) *ConfigBuilder {
	b.config.retries = n
	return b
}

// WithRetryDelay spaces attempts, starting at d and doubling up to 30 times d.
// Zero retries immediately.
func (b *ConfigBuilder) WithRetryDelay(d time.Duration) *ConfigBuilder {
	b.config.retryDelay = d
	return b
}

// WithEndpoints overrides portal URLs. Empty fields keep their defaults.
func (b *ConfigBuilder) WithEndpoints(e Endpoints) *ConfigBuilder {
	b.config.endpoints = e
	return b
}

func (b *ConfigBuilder) WithTimeout(d time.Duration) *ConfigBuilder {
	b.config.timeout = d
	return b
}

// WithHTTPClient sets the client used to reach the portal. A cookie jar is
// installed when the client has none.
func (b *ConfigBuilder) WithHTTPClient(c *http.Client) *ConfigBuilder {
	b.config.httpClient = c
	return b
}

// WithPortal replaces the HTTP portal client, typically with a test double.
func (b *ConfigBuilder) WithPortal(p Portal) *ConfigBuilder {
	b.config.portal = p
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

// Build validates the settings and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
