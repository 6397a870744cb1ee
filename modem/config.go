package modem

import (
	"log/slog"
	"time"
)

const (
	// DefaultRetries is the number of extra transmission attempts.
	DefaultRetries = 2
	// DefaultSerialTimeout bounds a single read from the modem.
	DefaultSerialTimeout = 200 * time.Millisecond
	// DefaultRegion is the country used for numbers without an
	// international prefix.
	DefaultRegion = "SI"
)

// Config holds the settings of a Modem. Build one with NewConfigBuilder.
type Config struct {
	dialer         Dialer
	retries        int
	serialTimeout  time.Duration
	region         string
	source         string
	deliveryReport bool
	logger         *slog.Logger
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	if c.retries < 0 {
		return ErrInvalidRetries
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.serialTimeout == 0 {
		c.serialTimeout = DefaultSerialTimeout
	}
	if c.region == "" {
		c.region = DefaultRegion
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

// WithDialer sets how the modem connection is opened. Required.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithRetries sets how many times a failed transmission is repeated.
func (b *ConfigBuilder) WithRetries(n int) *ConfigBuilder {
	b.config.retries = n
	return b
}

// WithSerialTimeout sets how long a read waits for modem output.
func (b *ConfigBuilder) WithSerialTimeout(d time.Duration) *ConfigBuilder {
	b.config.serialTimeout = d
	return b
}

// WithRegion sets the default country for national numbers.
func (b *ConfigBuilder) WithRegion(region string) *ConfigBuilder {
	b.config.region = region
	return b
}

// WithSourceNumber sets the originating number used when a send does not
// name one.
func (b *ConfigBuilder) WithSourceNumber(number string) *ConfigBuilder {
	b.config.source = number
	return b
}

// WithDeliveryReport requests status reports for every message.
func (b *ConfigBuilder) WithDeliveryReport(on bool) *ConfigBuilder {
	b.config.deliveryReport = on
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
