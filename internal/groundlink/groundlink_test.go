package groundlink

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
)

type fakeToken struct{}

func (fakeToken) Wait() bool                     { return true }
func (fakeToken) WaitTimeout(time.Duration) bool { return true }
func (fakeToken) Error() error                   { return nil }

type publishCall struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu    sync.Mutex
	calls []publishCall
}

func (c *fakeClient) IsConnected() bool       { return true }
func (c *fakeClient) IsConnectionOpen() bool  { return true }
func (c *fakeClient) Connect() mqtt.Token     { return fakeToken{} }
func (c *fakeClient) Disconnect(quiesce uint) {}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, publishCall{topic, append([]byte(nil), payload.([]byte)...)})
	return fakeToken{}
}

func (c *fakeClient) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token { return fakeToken{} }
func (c *fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}
func (c *fakeClient) Unsubscribe(...string) mqtt.Token           { return fakeToken{} }
func (c *fakeClient) AddRoute(string, mqtt.MessageHandler)       {}
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader    { return mqtt.ClientOptionsReader{} }

func (c *fakeClient) published() []publishCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]publishCall(nil), c.calls...)
}

func TestNotifyPublishesStatusText(t *testing.T) {
	client := &fakeClient{}
	link := New(client, "bravo-2", nil)

	link.Notify(core.SeverityCritical, "Crash: Disarming")

	calls := client.published()
	if len(calls) != 1 {
		t.Fatalf("got %d publishes, want 1", len(calls))
	}
	if calls[0].topic != "/devices/bravo-2/events/statustext" {
		t.Errorf("topic = %q", calls[0].topic)
	}
	var st statusText
	if err := json.Unmarshal(calls[0].payload, &st); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if st.Severity != "critical" || st.Text != "Crash: Disarming" {
		t.Errorf("statustext = %+v", st)
	}
	if st.MessageID == "" || st.Timestamp == 0 {
		t.Errorf("statustext missing id/timestamp: %+v", st)
	}
}

func TestNotifySeverityMapping(t *testing.T) {
	client := &fakeClient{}
	link := New(client, "bravo-2", nil)

	for sev, want := range map[core.Severity]string{
		core.SeverityInfo:     "info",
		core.SeverityWarning:  "warning",
		core.SeverityError:    "error",
		core.SeverityCritical: "critical",
	} {
		link.Notify(sev, "x")
		calls := client.published()
		var st statusText
		if err := json.Unmarshal(calls[len(calls)-1].payload, &st); err != nil {
			t.Fatal(err)
		}
		if st.Severity != want {
			t.Errorf("severity %d published as %q, want %q", sev, st.Severity, want)
		}
	}
}

func TestTelemetryLoopPublishesSnapshots(t *testing.T) {
	client := &fakeClient{}
	link := New(client, "bravo-2", nil)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	link.StartTelemetry(ctx, &wg, 5*time.Millisecond, func() Snapshot {
		return Snapshot{Armed: true, Mode: "AUTO", CommandIndex: 3}
	})

	deadline := time.After(2 * time.Second)
	for len(client.published()) == 0 {
		select {
		case <-deadline:
			t.Fatal("no telemetry published within 2s")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	wg.Wait()

	calls := client.published()
	if calls[0].topic != "/devices/bravo-2/events/telemetry" {
		t.Errorf("topic = %q", calls[0].topic)
	}
	var s Snapshot
	if err := json.Unmarshal(calls[0].payload, &s); err != nil {
		t.Fatal(err)
	}
	if !s.Armed || s.Mode != "AUTO" || s.CommandIndex != 3 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.MessageID == "" {
		t.Error("snapshot missing message id")
	}
}
