// Package nas keeps the share folder identical across the fleet.
//
// One node is designated the share server by the bootstrap script; all
// others are clients. A client compares its manifest hash against the
// server whenever the server comes onboard, then downloads and uploads
// files until the hashes agree. After that, settled file changes from
// the monitor plugin are pushed directly.
package nas

import "fmt"

// State is a peer's sync state as seen from this node.
type State int

const (
	// StateUnsync means no successful hash comparison yet.
	StateUnsync State = iota

	// StateSyncing means a transfer round is in progress.
	StateSyncing

	// StateSynced means manifests agreed at last contact.
	StateSynced

	// StateError means the last sync round failed.
	StateError
)

// String implements fmt.Stringer; the wire state command carries these.
func (s State) String() string {
	switch s {
	case StateUnsync:
		return "Unsync"
	case StateSyncing:
		return "Syncing"
	case StateSynced:
		return "Synced"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState is the inverse of String.
func ParseState(s string) (State, bool) {
	switch s {
	case "Unsync":
		return StateUnsync, true
	case "Syncing":
		return StateSyncing, true
	case "Synced":
		return StateSynced, true
	case "Error":
		return StateError, true
	default:
		return StateUnsync, false
	}
}

// Peer is one fleet node's share view: whether it is reachable and how
// far along its copy is.
type Peer struct {
	Name        string
	Onboard     bool
	TailscaleIP string
	State       State
}
