package nas

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"homelink/internal/bus"
	"homelink/internal/errors"
	"homelink/internal/plugin"
	"homelink/internal/sysinfo"
)

// PluginName is the bus address of the nas plugin.
const PluginName = "nas"

// serverIPRetryDelay is how long a client waits before re-checking for
// the server's address; onboard often arrives before tailscale_ip.
const serverIPRetryDelay = 3 * time.Second

// maxSyncRounds bounds a sync: each round transfers the full diff, so
// the hashes should agree after one round and always after a few. A
// share mutating faster than it syncs must not loop forever.
const maxSyncRounds = 5

// Plugin is the share sync state machine. The node named by `init` is
// the server; everyone else is a client that mirrors it.
type Plugin struct {
	plugin.Base
	store     *Store
	transport Transport
	node      string
	webPort   int

	mu      sync.Mutex
	server  string
	state   State
	peers   map[string]*Peer
	syncing bool
}

// New creates the nas plugin. webPort is where every node's sync
// endpoints listen.
func New(b *bus.Bus, store *Store, transport Transport, node string, webPort int) *Plugin {
	return &Plugin{
		Base:      plugin.NewBase(PluginName, b),
		store:     store,
		transport: transport,
		node:      node,
		webPort:   webPort,
		peers:     make(map[string]*Peer),
	}
}

// Store exposes the share for the sync endpoints.
func (p *Plugin) Store() *Store { return p.store }

// Handle implements plugin.Plugin.
//
// Actions:
//
//	init <server>                     designate the share server
//	peer onboard <name> <0|1>         peer connectivity from the fleet
//	peer tailscale_ip <name> <ip>     peer address from the fleet
//	state <name> <state>              client state seen by the server
//	file_modify <base64-relpath>      settled change from the monitor
//	file_remove <base64-relpath>      settled removal from the monitor
//	sync                              force a client sync round
//	show                              log peers and state
func (p *Plugin) Handle(ctx context.Context, action string, args []string) error {
	switch action {
	case "init":
		if len(args) != 1 {
			return fmt.Errorf("%w: want init <server>", errors.ErrInvalidCommand)
		}
		p.handleInit(args[0])
		return nil
	case "peer":
		return p.handlePeer(ctx, args)
	case "state":
		if len(args) != 2 {
			return fmt.Errorf("%w: want state <name> <state>", errors.ErrInvalidCommand)
		}
		return p.handleState(args[0], args[1])
	case "file_modify":
		return p.handleFileChange(ctx, args, false)
	case "file_remove":
		return p.handleFileChange(ctx, args, true)
	case "sync":
		p.startSync(ctx)
		return nil
	case "show":
		p.handleShow()
		return nil
	default:
		return fmt.Errorf("%w: nas %s", errors.ErrInvalidCommand, action)
	}
}

func (p *Plugin) handleInit(server string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.server != "" {
		return
	}
	p.server = server
	if p.isServerLocked() {
		p.Infof("serving share %s", p.store.Root())
	} else {
		p.Infof("mirroring share from %s", server)
	}
}

// isServerLocked reports whether this node is the share server.
// Callers hold p.mu.
func (p *Plugin) isServerLocked() bool { return p.server == p.node }

func (p *Plugin) handlePeer(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: want peer <fact> <name> <value>", errors.ErrInvalidCommand)
	}
	fact, name, value := args[0], args[1], args[2]
	if name == p.node {
		return nil
	}

	switch fact {
	case "onboard":
		p.handlePeerOnboard(ctx, name, value == "1")
		return nil
	case "tailscale_ip":
		p.mu.Lock()
		p.upsertPeerLocked(name).TailscaleIP = value
		p.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("%w: nas peer %s", errors.ErrInvalidCommand, fact)
	}
}

func (p *Plugin) upsertPeerLocked(name string) *Peer {
	peer, ok := p.peers[name]
	if !ok {
		peer = &Peer{Name: name}
		p.peers[name] = peer
	}
	return peer
}

func (p *Plugin) handlePeerOnboard(ctx context.Context, name string, onboard bool) {
	p.mu.Lock()
	peer := p.upsertPeerLocked(name)
	peer.Onboard = onboard
	isServer := p.isServerLocked()
	serverName := p.server
	p.mu.Unlock()

	if isServer {
		// A client that dropped off starts over when it returns.
		if !onboard {
			p.setPeerState(name, StateUnsync)
		}
		return
	}

	if name != serverName {
		return
	}
	if onboard {
		p.startSync(ctx)
	} else {
		p.setClientState(StateUnsync)
	}
}

func (p *Plugin) handleState(name, raw string) error {
	state, ok := ParseState(raw)
	if !ok {
		return fmt.Errorf("%w: nas state %q", errors.ErrInvalidCommand, raw)
	}
	p.setPeerState(name, state)
	return nil
}

// handleFileChange propagates one settled local change. The server
// pushes to every reachable client; a synced client pushes to the
// server.
func (p *Plugin) handleFileChange(ctx context.Context, args []string, remove bool) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: want one base64 path", errors.ErrInvalidCommand)
	}
	raw, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("%w: bad base64 path: %v", errors.ErrInvalidCommand, err)
	}
	filename := string(raw)

	for _, target := range p.pushTargets() {
		if remove {
			p.removeRemote(ctx, target, filename)
		} else {
			p.putFile(ctx, target, filename)
		}
	}
	return nil
}

// pushTargets decides where a local change goes.
func (p *Plugin) pushTargets() []Peer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isServerLocked() {
		var targets []Peer
		for _, peer := range p.peers {
			if peer.Onboard && peer.TailscaleIP != "" {
				targets = append(targets, *peer)
			}
		}
		return targets
	}

	if p.state != StateSynced {
		return nil
	}
	server, ok := p.peers[p.server]
	if !ok || server.TailscaleIP == "" {
		return nil
	}
	return []Peer{*server}
}

func (p *Plugin) peerAddr(peer Peer) string {
	return fmt.Sprintf("%s:%d", peer.TailscaleIP, p.webPort)
}

func (p *Plugin) putFile(ctx context.Context, peer Peer, filename string) {
	content, mtime, err := p.store.ReadEncoded(filename)
	if err != nil {
		p.Infof("PUT %s to %s failed: %v", filename, peer.Name, err)
		return
	}
	file := &FilePayload{Filename: filename, Content: content, MTime: mtime}
	if err := p.transport.Upload(ctx, p.peerAddr(peer), file); err != nil {
		p.Infof("PUT %s to %s failed: %v", filename, peer.Name, err)
		return
	}
	p.Infof("PUT %s to %s", filename, peer.Name)
}

func (p *Plugin) removeRemote(ctx context.Context, peer Peer, filename string) {
	if err := p.transport.Remove(ctx, p.peerAddr(peer), filename); err != nil {
		p.Infof("REMOVE %s on %s failed: %v", filename, peer.Name, err)
		return
	}
	p.Infof("REMOVE %s on %s", filename, peer.Name)
}

// startSync kicks off a client sync round in the background; the bus
// must not stall behind file transfers.
func (p *Plugin) startSync(ctx context.Context) {
	p.mu.Lock()
	if p.isServerLocked() || p.server == "" || p.syncing {
		p.mu.Unlock()
		return
	}

	server, ok := p.peers[p.server]
	if !ok || server.TailscaleIP == "" {
		serverName := p.server
		p.mu.Unlock()
		// The address usually trails the onboard message by a moment.
		p.Infof("%s: address unknown, retrying", serverName)
		time.AfterFunc(serverIPRetryDelay, func() {
			p.Cmdf("p nas sync")
		})
		return
	}

	p.syncing = true
	addr := p.peerAddr(*server)
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			p.syncing = false
			p.mu.Unlock()
		}()
		if err := p.syncRounds(ctx, addr); err != nil {
			p.Infof("sync failed: %v", err)
			p.setClientState(StateError)
		}
	}()
}

// syncRounds compares manifests and transfers the diff until the
// hashes agree.
func (p *Plugin) syncRounds(ctx context.Context, addr string) error {
	for round := 0; round < maxSyncRounds; round++ {
		manifest, err := p.store.Manifest()
		if err != nil {
			return err
		}

		resp, err := p.transport.CheckHash(ctx, addr, p.node, manifest.Hash)
		if err != nil {
			return err
		}
		if resp.Result == 0 {
			p.Infof("hash matched, synced")
			p.setClientState(StateSynced)
			return nil
		}
		if resp.FileList == nil {
			return fmt.Errorf("%w: mismatch without manifest", errors.ErrPeerUnreachable)
		}

		p.Infof("hash mismatched, syncing (round %d)", round+1)
		p.setClientState(StateSyncing)

		for _, action := range Diff(resp.FileList, manifest) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.applyAction(ctx, addr, action); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w: share did not converge after %d rounds", errors.ErrPeerUnreachable, maxSyncRounds)
}

func (p *Plugin) applyAction(ctx context.Context, addr string, action SyncAction) error {
	switch action.Type {
	case ActionGet:
		file, err := p.transport.Download(ctx, addr, action.Filename)
		if err != nil {
			return err
		}
		if err := p.store.WriteEncoded(file.Filename, file.Content, file.MTime); err != nil {
			return err
		}
		p.Infof("GET %s", action.Filename)
		return nil
	case ActionPut:
		content, mtime, err := p.store.ReadEncoded(action.Filename)
		if err != nil {
			return err
		}
		file := &FilePayload{Filename: action.Filename, Content: content, MTime: mtime}
		if err := p.transport.Upload(ctx, addr, file); err != nil {
			return err
		}
		p.Infof("PUT %s", action.Filename)
		return nil
	default:
		return fmt.Errorf("%w: unknown sync action", errors.ErrInvalidCommand)
	}
}

// CheckHash serves the server side of a client's hash probe. It is
// called from the web handlers.
func (p *Plugin) CheckHash(clientName, hash string) (*CheckHashResponse, error) {
	manifest, err := p.store.Manifest()
	if err != nil {
		return nil, err
	}

	if manifest.Hash == hash {
		p.Infof("%s: hash matched", clientName)
		p.setPeerState(clientName, StateSynced)
		return &CheckHashResponse{Result: 0}, nil
	}
	p.Infof("%s: hash mismatched", clientName)
	p.setPeerState(clientName, StateSyncing)
	return &CheckHashResponse{Result: 1, FileList: manifest}, nil
}

// setClientState updates our own sync state.
func (p *Plugin) setClientState(state State) {
	p.mu.Lock()
	changed := p.state != state
	p.state = state
	p.mu.Unlock()
	if changed {
		p.Infof("state: %s", state)
	}
}

// setPeerState updates a peer's recorded state (server bookkeeping).
func (p *Plugin) setPeerState(name string, state State) {
	p.mu.Lock()
	peer := p.upsertPeerLocked(name)
	changed := peer.State != state
	peer.State = state
	p.mu.Unlock()
	if changed {
		p.Infof("%s state: %s", name, state)
	}
}

// State returns our own sync state.
func (p *Plugin) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Peers returns a snapshot for read-side consumers.
func (p *Plugin) Peers() []Peer {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Peer, 0, len(p.peers))
	for _, peer := range p.peers {
		out = append(out, *peer)
	}
	return out
}

func (p *Plugin) handleShow() {
	p.mu.Lock()
	server, state := p.server, p.state
	peers := make([]Peer, 0, len(p.peers))
	for _, peer := range p.peers {
		peers = append(peers, *peer)
	}
	p.mu.Unlock()

	p.Infof("share server: %s", orNA(server))
	p.Infof("state: %s", state)
	p.Infof("%-12s %-7s %-16s %s", "Name", "Onboard", "Tailscale IP", "State")
	for _, peer := range peers {
		p.Infof("%-12s %-7s %-16s %s", peer.Name,
			sysinfo.OnboardString(peer.Onboard), orNA(peer.TailscaleIP), peer.State)
	}
}

func orNA(s string) string {
	if s == "" {
		return sysinfo.NotAvailable
	}
	return s
}
