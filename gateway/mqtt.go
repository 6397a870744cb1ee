package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Request is the JSON payload accepted on the MQTT topic.
type Request struct {
	To      string `json:"to"`
	Message string `json:"message"`
	// ID is an optional caller supplied identifier echoed in the logs.
	ID string `json:"id,omitempty"`
}

// MQTTOptions configure a Subscriber.
type MQTTOptions struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
	// SendTimeout bounds the delivery of one request. Defaults to one minute.
	SendTimeout time.Duration
	// ConnectTimeout bounds the initial connection. Defaults to ten seconds.
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

func (o *MQTTOptions) setDefaults() {
	if o.ClientID == "" {
		o.ClientID = "smsdeliver"
	}
	if o.Topic == "" {
		o.Topic = "sms/send"
	}
	if o.SendTimeout == 0 {
		o.SendTimeout = time.Minute
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

var (
	errBadPayload     = errors.New("mqtt: payload is not a JSON request")
	errMissingFields  = errors.New("mqtt: both 'to' and 'message' are required")
	errConnectTimeout = errors.New("mqtt: timed out connecting to broker")
)

// Subscriber sends every request published on a topic. MQTT has no reply
// path, so failures are only logged.
type Subscriber struct {
	sender Sender
	opts   MQTTOptions
	client mqtt.Client
	log    *slog.Logger
}

// NewSubscriber returns a Subscriber forwarding requests to s. It does not
// connect until Start.
func NewSubscriber(s Sender, opts MQTTOptions) *Subscriber {
	opts.setDefaults()
	return &Subscriber{
		sender: s,
		opts:   opts,
		log:    opts.Logger.With("component", "mqtt", "topic", opts.Topic),
	}
}

// Start connects to the broker. If the broker cannot be reached within the
// connect timeout an error is returned and the client keeps retrying. The
// subscription is renewed on every reconnect.
func (s *Subscriber) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.opts.Broker)
	opts.SetClientID(s.opts.ClientID)
	if s.opts.Username != "" {
		opts.SetUsername(s.opts.Username)
		opts.SetPassword(s.opts.Password)
	}
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.log.Warn("connection lost", "error", err)
	})
	opts.SetOnConnectHandler(s.subscribe)

	s.client = mqtt.NewClient(opts)
	t := s.client.Connect()
	if !t.WaitTimeout(s.opts.ConnectTimeout) {
		return errConnectTimeout
	}
	return t.Error()
}

// Close disconnects, waiting up to 500ms for in-flight work.
func (s *Subscriber) Close() {
	if s.client != nil {
		s.client.Disconnect(500)
	}
}

func (s *Subscriber) subscribe(c mqtt.Client) {
	s.log.Info("connected, subscribing")
	if t := c.Subscribe(s.opts.Topic, 0, s.onMessage); t.Wait() && t.Error() != nil {
		s.log.Error("subscribe failed", "error", t.Error())
	}
}

func (s *Subscriber) onMessage(_ mqtt.Client, m mqtt.Message) {
	if err := s.deliver(m.Payload()); err != nil {
		s.log.Error("request dropped", "message_id", m.MessageID(), "error", err)
	}
}

func (s *Subscriber) deliver(payload []byte) error {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return errors.Join(errBadPayload, err)
	}
	if req.To == "" || req.Message == "" {
		return errMissingFields
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SendTimeout)
	defer cancel()

	balance, err := s.sender.SendLong(ctx, req.To, req.Message)
	if err != nil {
		return err
	}
	s.log.Info("request sent", "id", req.ID, "to", req.To, "balance", balance)
	return nil
}
