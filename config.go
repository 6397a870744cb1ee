package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	ProviderNajdi = "najdi"
	ProviderModem = "modem"
)

// Config holds the application configuration
type Config struct {
	// Provider selects the delivery channel, "najdi" or "modem"
	Provider string `yaml:"provider"`

	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// SourceNumber is the originating number announced by the modem
	SourceNumber string `yaml:"source_number"`
	// DeliveryReport requests status reports for modem sends
	DeliveryReport bool `yaml:"delivery_report"`

	// Username and Password are the najdi.si account credentials
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Retries is the number of extra attempts after a failed send
	Retries int `yaml:"retries"`
	// RetryDelay spaces portal retries; zero retries immediately
	RetryDelay time.Duration `yaml:"retry_delay"`
	// Region is the default country for numbers without a country code
	Region string `yaml:"region"`

	// BindAddress is the address the HTTP API listens on (e.g. "0.0.0.0:8080")
	BindAddress string `yaml:"bind_address"`
	// HTTPToken, when set, is required as a bearer token by the HTTP API
	HTTPToken string `yaml:"http_token"`
	// RatePerMin bounds POST /sms requests per minute; zero disables the limit
	RatePerMin int `yaml:"rate_per_min"`
	// SMTPAddress enables the mail gateway when set (e.g. "0.0.0.0:2525")
	SMTPAddress string `yaml:"smtp_address"`
	// SMTPDomain is the host name the mail gateway announces
	SMTPDomain string `yaml:"smtp_domain"`
	// AllowedSenders restricts which envelope senders the gateway accepts
	AllowedSenders []string `yaml:"allowed_senders"`
	// DefaultDestination receives mail sent to a non-numeric recipient
	DefaultDestination string `yaml:"default_destination"`

	// MQTTBroker enables the MQTT subscriber when set (e.g. "tcp://localhost:1883")
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTClientID string `yaml:"mqtt_client_id"`
	MQTTTopic    string `yaml:"mqtt_topic"`
	MQTTUsername string `yaml:"mqtt_username"`
	MQTTPassword string `yaml:"mqtt_password"`

	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that the selected provider has what it needs
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderNajdi:
		if c.Username == "" || c.Password == "" {
			return errors.New("najdi provider requires username and password")
		}
	case ProviderModem:
		if c.SerialPort == "" {
			return errors.New("modem provider requires a serial port")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	if c.RatePerMin < 0 {
		return errors.New("rate per minute must not be negative")
	}
	return nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.Provider = ProviderNajdi
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.Retries = 2
		c.Region = "SI"
		c.BindAddress = "0.0.0.0:8080"
		c.RatePerMin = 30
		c.SMTPDomain = "localhost"
		c.MQTTClientID = "smsdeliver"
		c.MQTTTopic = "sms/send"
		c.LogLevel = "info"
		return nil
	}
}

// WithYAML loads configuration from a YAML file. An empty path is ignored.
func WithYAML(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnvFile loads configuration from a dotenv file without touching the
// process environment. An empty path is ignored.
func WithEnvFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read env file: %w", err)
		}
		return applyEnv(c, func(key string) string { return vars[key] })
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		return applyEnv(c, os.Getenv)
	}
}

func applyEnv(c *Config, getenv func(string) string) error {
	str := map[string]*string{
		"PROVIDER":            &c.Provider,
		"SERIAL_PORT":         &c.SerialPort,
		"SOURCE_NUMBER":       &c.SourceNumber,
		"NAJDI_USERNAME":      &c.Username,
		"NAJDI_PASSWORD":      &c.Password,
		"REGION":              &c.Region,
		"BIND_ADDRESS":        &c.BindAddress,
		"HTTP_TOKEN":          &c.HTTPToken,
		"SMTP_ADDRESS":        &c.SMTPAddress,
		"SMTP_DOMAIN":         &c.SMTPDomain,
		"DEFAULT_DESTINATION": &c.DefaultDestination,
		"MQTT_BROKER":         &c.MQTTBroker,
		"MQTT_CLIENT_ID":      &c.MQTTClientID,
		"MQTT_TOPIC":          &c.MQTTTopic,
		"MQTT_USERNAME":       &c.MQTTUsername,
		"MQTT_PASSWORD":       &c.MQTTPassword,
		"LOG_LEVEL":           &c.LogLevel,
	}
	for key, dst := range str {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BAUD_RATE":    &c.BaudRate,
		"RETRIES":      &c.Retries,
		"RATE_PER_MIN": &c.RatePerMin,
	}
	for key, dst := range ints {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := getenv("RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RETRY_DELAY: %w", err)
		}
		c.RetryDelay = d
	}
	if v := getenv("DELIVERY_REPORT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DELIVERY_REPORT: %w", err)
		}
		c.DeliveryReport = b
	}
	if v := getenv("ALLOWED_SENDERS"); v != "" {
		c.AllowedSenders = splitList(v)
	}
	return nil
}

// WithFlags loads configuration from command-line flags that were set
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *pflag.Flag) {
			if err != nil {
				return
			}
			switch f.Name {
			case "provider":
				c.Provider = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				c.BaudRate, err = fSet.GetInt(f.Name)
			case "source-number":
				c.SourceNumber = f.Value.String()
			case "delivery-report":
				c.DeliveryReport, err = fSet.GetBool(f.Name)
			case "username":
				c.Username = f.Value.String()
			case "password":
				c.Password = f.Value.String()
			case "retries":
				c.Retries, err = fSet.GetInt(f.Name)
			case "retry-delay":
				c.RetryDelay, err = fSet.GetDuration(f.Name)
			case "region":
				c.Region = f.Value.String()
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "http-token":
				c.HTTPToken = f.Value.String()
			case "rate-per-min":
				c.RatePerMin, err = fSet.GetInt(f.Name)
			case "smtp-address":
				c.SMTPAddress = f.Value.String()
			case "smtp-domain":
				c.SMTPDomain = f.Value.String()
			case "allowed-senders":
				c.AllowedSenders, err = fSet.GetStringSlice(f.Name)
			case "default-destination":
				c.DefaultDestination = f.Value.String()
			case "mqtt-broker":
				c.MQTTBroker = f.Value.String()
			case "mqtt-client-id":
				c.MQTTClientID = f.Value.String()
			case "mqtt-topic":
				c.MQTTTopic = f.Value.String()
			case "mqtt-username":
				c.MQTTUsername = f.Value.String()
			case "mqtt-password":
				c.MQTTPassword = f.Value.String()
			case "log-level":
				c.LogLevel = f.Value.String()
			}
		})
		return err
	}
}

// NewFlagSet declares the command-line flags understood by WithFlags
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("provider", ProviderNajdi, "Delivery provider (najdi, modem)")
	fs.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	fs.Int("baud-rate", 115200, "Baud rate for serial communication")
	fs.String("source-number", "", "Originating number announced by the modem")
	fs.Bool("delivery-report", false, "Request delivery reports for modem sends")
	fs.String("username", "", "najdi.si username")
	fs.String("password", "", "najdi.si password")
	fs.Int("retries", 2, "Number of extra attempts after a failed send")
	fs.Duration("retry-delay", 0, "Initial delay between portal retries")
	fs.String("region", "SI", "Default country for national numbers")
	fs.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	fs.String("http-token", "", "Bearer token required by the HTTP API")
	fs.Int("rate-per-min", 30, "Maximum POST /sms requests per minute (0 disables)")
	fs.String("smtp-address", "", "Bind address for the mail gateway (disabled when empty)")
	fs.String("smtp-domain", "localhost", "Host name announced by the mail gateway")
	fs.StringSlice("allowed-senders", nil, "Envelope senders accepted by the mail gateway")
	fs.String("default-destination", "", "Number receiving mail sent to non-numeric recipients")
	fs.String("mqtt-broker", "", "MQTT broker URL (subscriber disabled when empty)")
	fs.String("mqtt-client-id", "smsdeliver", "MQTT client identifier")
	fs.String("mqtt-topic", "sms/send", "MQTT topic carrying send requests")
	fs.String("mqtt-username", "", "MQTT username")
	fs.String("mqtt-password", "", "MQTT password")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("config", "", "Path to a YAML configuration file")
	fs.String("env-file", "", "Path to a dotenv file")
	return fs
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
