package mqtt

import (
	"context"
	"fmt"

	"homelink/internal/bus"
	"homelink/internal/constants"
	"homelink/internal/errors"
	"homelink/internal/plugin"
)

// PluginName is the bus address of the mqtt plugin.
const PluginName = "mqtt"

// fleetKeys are the topic keys forwarded into the device registry.
// Anything else under the prefix is logged and dropped.
var fleetKeys = map[string]struct{}{
	constants.KeyOnboard:     {},
	constants.KeyVersion:     {},
	constants.KeyTailscaleIP: {},
	constants.KeyTemperature: {},
	constants.KeyAppUptime:   {},
}

// Plugin bridges the bus and the broker: outgoing `p mqtt publish`
// commands become broker publishes, incoming fleet messages become
// `p device <key> <node> <payload>` commands.
type Plugin struct {
	plugin.Base
	broker Broker
	parser *topicParser
}

// New creates the mqtt plugin.
func New(b *bus.Bus, broker Broker, topicPrefix string) *Plugin {
	return &Plugin{
		Base:   plugin.NewBase(PluginName, b),
		broker: broker,
		parser: newTopicParser(topicPrefix),
	}
}

// Run connects the session and holds it until ctx is canceled.
func (p *Plugin) Run(ctx context.Context) error {
	if err := p.broker.Connect(ctx, p.onMessage); err != nil {
		return errors.Wrap(err, "mqtt session failed")
	}
	p.Infof("fleet session up")

	<-ctx.Done()
	p.broker.Disconnect()
	return ctx.Err()
}

// Handle implements plugin.Plugin.
//
// Actions:
//
//	publish <retain> <key> <payload>  publish under this node's topics
//	show                              log session state
func (p *Plugin) Handle(_ context.Context, action string, args []string) error {
	switch action {
	case "publish":
		return p.handlePublish(args)
	case "show":
		p.Infof("connected: %t", p.broker.IsConnected())
		return nil
	default:
		return fmt.Errorf("%w: mqtt %s", errors.ErrInvalidCommand, action)
	}
}

func (p *Plugin) handlePublish(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: want publish <retain> <key> <payload>", errors.ErrInvalidCommand)
	}
	retain := args[0] == "true"
	key, payload := args[1], args[2]

	if err := p.broker.Publish(key, retain, payload); err != nil {
		return err
	}
	p.Infof("-> pub::%s %s", key, payload)
	return nil
}

// onMessage routes one fleet message onto the bus. Runs on the paho
// receive goroutine, so it only publishes and returns.
func (p *Plugin) onMessage(topic string, payload []byte) {
	t, err := p.parser.Parse(topic)
	if err != nil {
		p.Infof("ignoring topic %s", topic)
		return
	}
	if _, ok := fleetKeys[t.Key]; !ok {
		p.Infof("<- pub::%s %s %s (unknown key)", t.Key, t.Node, payload)
		return
	}

	p.Infof("<- pub::%s %s %s", t.Key, t.Node, payload)
	p.Cmdf("p device %s %s %s", t.Key, t.Node, payload)
}
