// Package groundlink is the MQTT uplink to the ground station: operator
// status text (the core's Notifier port) and a fixed-period telemetry
// snapshot. The broker handshake follows the IoT-core convention of a
// JWT as the MQTT password.
package groundlink

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	uuid "github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/flightlog"
)

const (
	qos    = 1
	retain = false

	username  = "unused" // broker ignores it, JWT carries the identity
	algorithm = "RS256"
)

// Options for the broker connection.
type Options struct {
	Broker         string
	DeviceID       string
	PrivateKeyPath string
	ProjectID      string
	Region         string
	RegistryID     string
}

// NewMQTTClient connects to the broker with a freshly signed JWT.
func NewMQTTClient(opts Options) (mqtt.Client, error) {
	keyData, err := os.ReadFile(opts.PrivateKeyPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading ground link private key")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyData)
	if err != nil {
		return nil, errors.Wrap(err, "parsing ground link private key")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.GetSigningMethod(algorithm), &jwt.StandardClaims{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(24 * time.Hour).Unix(),
		Audience:  opts.ProjectID,
	})
	pass, err := token.SignedString(key)
	if err != nil {
		return nil, errors.Wrap(err, "signing ground link token")
	}

	clientID := fmt.Sprintf("projects/%s/locations/%s/registries/%s/devices/%s",
		opts.ProjectID, opts.Region, opts.RegistryID, opts.DeviceID)

	client := mqtt.NewClient(mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID).
		SetUsername(username).
		SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}).
		SetPassword(pass).
		SetProtocolVersion(4)) // MQTT 3.1.1

	tok := client.Connect()
	if !tok.WaitTimeout(5 * time.Second) {
		return nil, errors.New("ground link connect timeout")
	}
	if err := tok.Error(); err != nil {
		return nil, errors.Wrap(err, "ground link connect")
	}
	return client, nil
}

// Link publishes to the device's event topics. It implements
// core.Notifier.
type Link struct {
	client   mqtt.Client
	deviceID string
	log      *flightlog.Logger
}

func New(client mqtt.Client, deviceID string, log *flightlog.Logger) *Link {
	return &Link{client: client, deviceID: deviceID, log: log}
}

type statusText struct {
	Timestamp int64  `json:"timestamp"`
	MessageID string `json:"message_id"`
	Severity  string `json:"severity"`
	Text      string `json:"text"`
}

// Notify publishes operator status text. Fire-and-forget: the control
// loop never waits on the broker.
func (l *Link) Notify(severity core.Severity, message string) {
	b, err := json.Marshal(statusText{
		Timestamp: time.Now().UnixNano() / 1000,
		MessageID: uuid.New().String(),
		Severity:  severity.String(),
		Text:      message,
	})
	if err != nil {
		l.log.Errorf("groundlink: marshal statustext: %v", err)
		return
	}
	topic := fmt.Sprintf("/devices/%s/events/statustext", l.deviceID)
	l.client.Publish(topic, qos, retain, b)
}

// Snapshot is the periodic telemetry frame.
type Snapshot struct {
	Timestamp int64  `json:"timestamp"`
	MessageID string `json:"message_id"`

	Armed        bool    `json:"armed"`
	Mode         string  `json:"mode"`
	CommandIndex int     `json:"command_index"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	AltM         float64 `json:"alt_m"`
	GroundSpeed  float64 `json:"ground_speed"`
}

// SnapshotFn assembles the current frame; called from the telemetry
// goroutine, so it must only read tick-published state.
type SnapshotFn func() Snapshot

// StartTelemetry publishes a snapshot at the given period until the
// context is cancelled.
func (l *Link) StartTelemetry(ctx context.Context, wg *sync.WaitGroup, period time.Duration, snap SnapshotFn) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		topic := fmt.Sprintf("/devices/%s/events/telemetry", l.deviceID)
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(period):
				s := snap()
				s.Timestamp = time.Now().UnixNano() / 1000
				s.MessageID = uuid.New().String()
				b, err := json.Marshal(s)
				if err != nil {
					l.log.Errorf("groundlink: marshal telemetry: %v", err)
					continue
				}
				l.client.Publish(topic, qos, retain, b)
			}
		}
	}()
}
