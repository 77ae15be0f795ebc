package deebot

import (
	"context"
	"testing"
)

// fakeTransport captures subscriptions and sent commands and lets tests
// inject events as if they arrived from the device.
type fakeTransport struct {
	subs      map[string][]func(Event)
	sent      []Command
	sentAddrs []string
	connected bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{subs: make(map[string][]func(Event))}
}

func (f *fakeTransport) Subscribe(name string, handler func(Event)) error {
	f.subs[name] = append(f.subs[name], handler)
	return nil
}

func (f *fakeTransport) SendCommand(cmd Command, deviceAddress string) error {
	f.sent = append(f.sent, cmd)
	f.sentAddrs = append(f.sentAddrs, deviceAddress)
	return nil
}

func (f *fakeTransport) SendKeepalive(string) error { return nil }

func (f *fakeTransport) ConnectAndWaitUntilReady(context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.connected = false
	return nil
}

func (f *fakeTransport) inject(name string, event Event) {
	for _, handler := range f.subs[name] {
		handler(event)
	}
}

func newTestSession(t *testing.T) (*Session, *fakeTransport) {
	t.Helper()
	transport := newFakeTransport()
	session, err := NewSession(testVacuum(), transport, SupportedDevices, ErrorCodes, nil)
	if err != nil {
		t.Fatalf("NewSession error: %v", err)
	}
	return session, transport
}

func TestSessionSubscribesAllEvents(t *testing.T) {
	_, transport := newTestSession(t)
	for _, name := range subscribedEvents {
		if len(transport.subs[name]) == 0 {
			t.Fatalf("event %s not subscribed", name)
		}
	}
}

func TestSessionConnectEmitsReady(t *testing.T) {
	session, transport := newTestSession(t)

	var ready bool
	session.On(SignalReady, func(any) { ready = true })

	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	defer func() { _ = session.Disconnect() }()

	if !transport.connected {
		t.Fatalf("transport not connected")
	}
	if !ready {
		t.Fatalf("ready signal not emitted")
	}
}

func TestSessionRunVerb(t *testing.T) {
	session, transport := newTestSession(t)

	if err := session.Run("Clean", "auto", "start"); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(transport.sent) != 1 || transport.sent[0].Name != "clean" {
		t.Fatalf("unexpected sent commands: %v", transport.sent)
	}
	if transport.sentAddrs[0] != "E0001234567890" {
		t.Fatalf("broker device must be addressed by id, got %q", transport.sentAddrs[0])
	}
}

func TestSessionRunUnknownVerb(t *testing.T) {
	session, transport := newTestSession(t)
	if err := session.Run("levitate"); err == nil {
		t.Fatalf("expected error for unknown verb")
	}
	if len(transport.sent) != 0 {
		t.Fatalf("unknown verb must not send anything")
	}
}

func TestSessionCapabilityGating(t *testing.T) {
	transport := newFakeTransport()
	vacuum := testVacuum()
	vacuum.Class = "123" // Slim2: no spot area support
	session, err := NewSession(vacuum, transport, SupportedDevices, ErrorCodes, nil)
	if err != nil {
		t.Fatalf("NewSession error: %v", err)
	}

	if err := session.Run("spotarea", "start", "1,3"); err == nil {
		t.Fatalf("expected capability error")
	}
	if len(transport.sent) != 0 {
		t.Fatalf("gated verb must not send anything")
	}
}

func TestSessionEventSignals(t *testing.T) {
	session, transport := newTestSession(t)

	var battery float64
	session.On(EventBatteryInfo, func(value any) {
		battery, _ = value.(float64)
	})

	transport.inject(EventBatteryInfo, attrEvent(EventBatteryInfo, map[string]string{"power": "87"}))

	if battery != 87 {
		t.Fatalf("battery signal carried %v", battery)
	}
	if got := session.State().BatteryLevel; got != 87 {
		t.Fatalf("state not updated: %v", got)
	}
}

func TestSessionMapFollowUps(t *testing.T) {
	session, transport := newTestSession(t)

	transport.inject(EventMap, attrEvent(EventMap, map[string]string{"i": "1077"}))

	if len(transport.sent) != 2 {
		t.Fatalf("expected 2 catalog fetches, got %d", len(transport.sent))
	}
	if maps := session.Store().Maps(); len(maps) != 1 || maps[0].ID != "1077" {
		t.Fatalf("unexpected map catalog: %+v", maps)
	}
	for _, cmd := range transport.sent {
		if cmd.Name != "getMapSet" {
			t.Fatalf("unexpected follow-up: %s", cmd.Name)
		}
	}

	transport.inject(EventMapSet, Event{
		Name:     EventMapSet,
		Attrs:    map[string]string{"tp": "vw"},
		Children: []Event{{Attrs: map[string]string{"mid": "41"}}},
	})

	last := transport.sent[len(transport.sent)-1]
	if last.Name != "pullM" {
		t.Fatalf("catalog event must trigger a detail fetch, got %s", last.Name)
	}
	args, ok := last.Args.(map[string]any)
	if !ok || args["tp"] != "vw" || args["msid"] != "41" {
		t.Fatalf("unexpected detail fetch args: %v", last.Args)
	}
}

func TestSessionMapSubsetSignal(t *testing.T) {
	session, transport := newTestSession(t)

	var result MapSubsetResult
	session.On(EventMapSubset, func(value any) {
		result, _ = value.(MapSubsetResult)
	})

	transport.inject(EventMapSubset, attrEvent(EventMapSubset, map[string]string{
		"id": "999999945",
		"m":  "100,100;200,100",
	}))

	if result.Event != MapsubsetVirtualWall || result.Barrier == nil {
		t.Fatalf("unexpected subset result: %+v", result)
	}
	if result.Barrier.LocalID != "45" {
		t.Fatalf("offset id not recovered: %s", result.Barrier.LocalID)
	}
}

func TestSessionHasCapability(t *testing.T) {
	session, _ := newTestSession(t)
	if !session.HasCapability(CapSpotArea) {
		t.Fatalf("ls1ok3 supports spot areas")
	}
	if session.HasCapability(CapMoppingSystem) {
		t.Fatalf("ls1ok3 has no mopping system")
	}
}
