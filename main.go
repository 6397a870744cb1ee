package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"i4.energy/across/smsdeliver/delivery"
	"i4.energy/across/smsdeliver/gateway"
	"i4.energy/across/smsdeliver/metrics"
	"i4.energy/across/smsdeliver/modem"
	"i4.energy/across/smsdeliver/najdi"
)

var (
	_ delivery.Provider     = (*najdi.Provider)(nil)
	_ delivery.Provider     = (*modem.Modem)(nil)
	_ delivery.SilentSender = (*modem.Modem)(nil)
	_ gateway.Sender        = (*delivery.Engine)(nil)
	_ delivery.Recorder     = (*metrics.Collector)(nil)
)

func main() {
	fSet := NewFlagSet(os.Args[0])
	if err := fSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	configPath, _ := fSet.GetString("config")
	envFile, _ := fSet.GetString("env-file")

	config, err := LoadConfig(
		WithDefaults(),
		WithYAML(configPath),
		WithEnvFile(envFile),
		WithEnv(),
		WithFlags(fSet),
	)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(config.LogLevel)}))

	provider, closer, err := newProvider(config, logger)
	if err != nil {
		logger.Error("Failed to create provider", "provider", config.Provider, "error", err)
		os.Exit(1)
	}
	collector := metrics.New(config.Provider)
	engine := delivery.New(provider, delivery.WithLogger(logger), delivery.WithRecorder(collector))

	logger.Info("Starting SMS delivery service", "provider", config.Provider)

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger:  logger.With("component", "server"),
			Engine:  engine,
			Metrics: collector.Handler(),
			Token:   config.HTTPToken,
			Limiter: newLimiter(config.RatePerMin),
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	var smtpServer *smtp.Server
	if config.SMTPAddress != "" {
		backend := gateway.NewBackend(engine, gateway.Options{
			AllowedSenders:     config.AllowedSenders,
			DefaultDestination: config.DefaultDestination,
			Logger:             logger,
		})
		smtpServer = gateway.NewServer(backend, config.SMTPAddress, config.SMTPDomain)
	}

	var subscriber *gateway.Subscriber
	if config.MQTTBroker != "" {
		subscriber = gateway.NewSubscriber(engine, gateway.MQTTOptions{
			Broker:   config.MQTTBroker,
			ClientID: config.MQTTClientID,
			Topic:    config.MQTTTopic,
			Username: config.MQTTUsername,
			Password: config.MQTTPassword,
			Logger:   logger,
		})
		logger.Info("Connecting to MQTT broker", "broker", config.MQTTBroker, "topic", config.MQTTTopic)
		if err := subscriber.Start(); err != nil {
			// The client keeps reconnecting in the background.
			logger.Error("MQTT connect failed", "error", err)
		}
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	if smtpServer != nil {
		go func() {
			logger.Info("Starting mail gateway", "address", smtpServer.Addr, "domain", smtpServer.Domain)
			if err := smtpServer.ListenAndServe(); err != nil && err != smtp.ErrServerClosed {
				logger.Error("Mail gateway failed", "error", err)
				os.Exit(1)
			}
		}()
	}

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
	}

	if smtpServer != nil {
		logger.Info("Closing mail gateway")
		if err := smtpServer.Close(); err != nil {
			logger.Error("Failed to close mail gateway", "error", err)
		}
	}

	if subscriber != nil {
		logger.Info("Disconnecting from MQTT broker")
		subscriber.Close()
	}

	if closer != nil {
		logger.Info("Closing modem connection")
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close modem", "error", err)
		}
	}
}

// newProvider builds the configured provider. The returned closer, if any,
// releases the provider's resources on shutdown.
func newProvider(config *Config, logger *slog.Logger) (delivery.Provider, io.Closer, error) {
	switch config.Provider {
	case ProviderNajdi:
		c, err := najdi.NewConfigBuilder().
			WithCredentials(config.Username, config.Password).
			WithRetries(config.Retries).
			WithRetryDelay(config.RetryDelay).
			WithLogger(logger).
			Build()
		if err != nil {
			return nil, nil, err
		}
		p, err := najdi.New(c)
		return p, nil, err

	case ProviderModem:
		c, err := modem.NewConfigBuilder().
			WithDialer(modem.SerialDialer{
				PortName: config.SerialPort,
				BaudRate: config.BaudRate,
			}).
			WithRetries(config.Retries).
			WithRegion(config.Region).
			WithSourceNumber(config.SourceNumber).
			WithDeliveryReport(config.DeliveryReport).
			WithLogger(logger).
			Build()
		if err != nil {
			return nil, nil, err
		}
		m, err := modem.New(c)
		if err != nil {
			return nil, nil, err
		}
		return m, m, nil
	}
	return nil, nil, fmt.Errorf("unknown provider %q", config.Provider)
}

// newLimiter allows perMin requests per minute with bursts of the same size.
// Zero disables the limit.
func newLimiter(perMin int) *rate.Limiter {
	if perMin <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
