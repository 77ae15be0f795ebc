package deebot

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTConfig describes the broker endpoint for an eco-ng device. The
// username and password come from the vendor login flow, which is not
// this package's concern.
type MQTTConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
}

// MQTTTransport implements Transport over the vendor's MQTT broker.
// Reports arrive on per-event topics; commands are published to the
// device's p2p request topic.
type MQTTTransport struct {
	cfg    MQTTConfig
	vacuum Vacuum
	log    *zap.Logger

	mu     sync.Mutex
	client mqtt.Client
	subs   map[string][]func(Event)
}

// NewMQTTTransport builds a transport for one device. Subscriptions are
// registered before connecting; the broker subscription itself happens
// in ConnectAndWaitUntilReady.
func NewMQTTTransport(cfg MQTTConfig, vacuum Vacuum, log *zap.Logger) (*MQTTTransport, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, errors.New("mqtt host and port are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MQTTTransport{
		cfg:    cfg,
		vacuum: vacuum,
		log:    log,
		subs:   make(map[string][]func(Event)),
	}, nil
}

func (t *MQTTTransport) Subscribe(name string, handler func(Event)) error {
	if handler == nil {
		return errors.New("nil event handler")
	}
	t.mu.Lock()
	t.subs[name] = append(t.subs[name], handler)
	t.mu.Unlock()
	return nil
}

func (t *MQTTTransport) ConnectAndWaitUntilReady(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if t.cfg.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, t.cfg.Host, t.cfg.Port))
	opts.SetUsername(t.cfg.Username)
	opts.SetPassword(t.cfg.Password)
	opts.SetClientID(randomClientID())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetDefaultPublishHandler(t.dispatch)
	opts.OnConnect = func(client mqtt.Client) {
		topic := t.reportTopic()
		if token := client.Subscribe(topic, 0, nil); token.Wait() && token.Error() != nil {
			t.log.Error("report subscription failed", zap.String("topic", topic), zap.Error(token.Error()))
		}
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	select {
	case <-ctx.Done():
		client.Disconnect(0)
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return err
	}

	t.mu.Lock()
	t.client = client
	t.mu.Unlock()
	return nil
}

// reportTopic matches every report event for this device:
// iot/atr/<EventName>/<did>/<class>/<resource>/<format>.
func (t *MQTTTransport) reportTopic() string {
	return fmt.Sprintf("iot/atr/+/%s/%s/%s/+", t.vacuum.DID, t.vacuum.Class, t.vacuum.Resource)
}

type commandPayload struct {
	Name string `json:"td"`
	ID   string `json:"id"`
	Args any    `json:"args,omitempty"`
}

func (t *MQTTTransport) SendCommand(cmd Command, deviceAddress string) error {
	client := t.connectedClient()
	if client == nil {
		return errors.New("mqtt session not connected")
	}
	payload, err := json.Marshal(commandPayload{Name: cmd.Name, ID: cmd.ID, Args: cmd.Args})
	if err != nil {
		return fmt.Errorf("encode %s command: %w", cmd.Name, err)
	}
	topic := fmt.Sprintf("iot/p2p/%s/%s/%s/%s/q/%s/j",
		cmd.Name, deviceAddress, t.vacuum.Class, t.vacuum.Resource, cmd.ID)
	if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// SendKeepalive publishes a ping for the device. Failure means the
// session is likely gone and is reported, never swallowed.
func (t *MQTTTransport) SendKeepalive(deviceAddress string) error {
	client := t.connectedClient()
	if client == nil || !client.IsConnected() {
		return errors.New("keepalive: mqtt session not connected")
	}
	topic := fmt.Sprintf("iot/ping/%s", deviceAddress)
	if token := client.Publish(topic, 0, false, []byte("ping")); token.Wait() && token.Error() != nil {
		return fmt.Errorf("keepalive: %w", token.Error())
	}
	return nil
}

func (t *MQTTTransport) Disconnect() error {
	client := t.connectedClient()
	if client == nil {
		return nil
	}
	client.Disconnect(250)
	t.mu.Lock()
	t.client = nil
	t.mu.Unlock()
	return nil
}

func (t *MQTTTransport) connectedClient() mqtt.Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client
}

func (t *MQTTTransport) dispatch(_ mqtt.Client, msg mqtt.Message) {
	parts := strings.Split(msg.Topic(), "/")
	if len(parts) < 3 || parts[0] != "iot" || parts[1] != "atr" {
		return
	}
	name := parts[2]

	event, err := DecodeEvent(name, msg.Payload())
	if err != nil {
		t.log.Warn("dropping undecodable event", zap.String("event", name), zap.Error(err))
		return
	}

	t.mu.Lock()
	handlers := append(([]func(Event))(nil), t.subs[name]...)
	t.mu.Unlock()
	for _, handler := range handlers {
		handler(event)
	}
}

func randomClientID() string {
	nonce := make([]byte, 8)
	_, _ = rand.Read(nonce)
	return "deebot-" + base64.RawURLEncoding.EncodeToString(nonce)
}
