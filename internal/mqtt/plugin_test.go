package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homelink/internal/bus"
	"homelink/internal/clock"
	"homelink/internal/errors"
	"homelink/internal/testutil"
)

// fakeBroker records publishes and lets tests inject fleet messages.
type fakeBroker struct {
	mu        sync.Mutex
	connected bool
	onMessage MessageHandler
	published []pub
	connErr   error
}

type pub struct {
	key     string
	retain  bool
	payload string
}

func (f *fakeBroker) Connect(_ context.Context, h MessageHandler) error {
	if f.connErr != nil {
		return f.connErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	f.onMessage = h
	return nil
}

func (f *fakeBroker) Publish(key string, retain bool, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return errors.ErrNotConnected
	}
	f.published = append(f.published, pub{key, retain, payload})
	return nil
}

func (f *fakeBroker) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeBroker) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeBroker) inject(topic string, payload string) {
	f.mu.Lock()
	h := f.onMessage
	f.mu.Unlock()
	h(topic, []byte(payload))
}

// harness wires a plugin to a live bus and a fake broker.
func harness(t *testing.T) (*Plugin, *fakeBroker, chan bus.Command) {
	t.Helper()
	b := bus.New(zerolog.Nop(), clock.RealClock{})
	cmds := make(chan bus.Command, 16)
	b.SetDispatcher(func(_ context.Context, cmd bus.Command) error {
		cmds <- cmd
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = b.Run(ctx) }()

	fb := &fakeBroker{}
	return New(b, fb, "tln"), fb, cmds
}

// startPlugin runs the plugin loop and waits for the session.
func startPlugin(t *testing.T, p *Plugin, fb *fakeBroker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = p.Run(ctx) }()
	require.Eventually(t, fb.IsConnected, 2*time.Second, 10*time.Millisecond)
}

// TestPublishCommand verifies `publish <retain> <key> <payload>`.
func TestPublishCommand(t *testing.T) {
	p, fb, _ := harness(t)
	startPlugin(t, p, fb)

	require.NoError(t, p.Handle(context.Background(),
		"publish", []string{"false", "temperature", "45.2"}))
	require.NoError(t, p.Handle(context.Background(),
		"publish", []string{"true", "onboard", "1"}))

	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.Len(t, fb.published, 2)
	assert.Equal(t, pub{"temperature", false, "45.2"}, fb.published[0])
	assert.Equal(t, pub{"onboard", true, "1"}, fb.published[1])
}

// TestPublishBadArity verifies malformed publish commands are rejected.
func TestPublishBadArity(t *testing.T) {
	p, fb, _ := harness(t)
	startPlugin(t, p, fb)

	err := p.Handle(context.Background(), "publish", []string{"false", "onboard"})
	assert.ErrorIs(t, err, errors.ErrInvalidCommand)
}

// TestIncomingFleetMessage verifies broker messages become device
// commands on the bus.
func TestIncomingFleetMessage(t *testing.T) {
	p, fb, cmds := harness(t)
	startPlugin(t, p, fb)

	fb.inject("tln/attic/temperature", "51.0")

	select {
	case cmd := <-cmds:
		assert.Equal(t, "device", cmd.Plugin)
		assert.Equal(t, "temperature", cmd.Action)
		assert.Equal(t, []string{"attic", "51.0"}, cmd.Args)
	case <-time.After(2 * time.Second):
		t.Fatal("fleet message was not routed")
	}
}

// TestIncomingUnknownKeyDropped verifies unknown keys do not reach the
// device registry.
func TestIncomingUnknownKeyDropped(t *testing.T) {
	p, fb, cmds := harness(t)
	startPlugin(t, p, fb)

	fb.inject("tln/attic/blood_pressure", "120")
	fb.inject("not-a-fleet-topic", "x")
	fb.inject("tln/attic/onboard", "1")

	// Only the onboard message may come through.
	select {
	case cmd := <-cmds:
		assert.Equal(t, "onboard", cmd.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("onboard message was not routed")
	}
	select {
	case cmd := <-cmds:
		t.Fatalf("unexpected command: %v", cmd)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestConnectFailure verifies a failed dial surfaces from Run.
func TestConnectFailure(t *testing.T) {
	p, fb, _ := harness(t)
	fb.connErr = testutil.ErrMockBroker

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, testutil.ErrMockBroker)
}
