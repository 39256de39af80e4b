package kv

// EventType identifies a keyspace change
type EventType string

const (
	EventSet     EventType = "set"
	EventDelete  EventType = "delete"
	EventExpire  EventType = "expire"
	EventExpired EventType = "expired"
)

// Reasons attached to EventExpired
const (
	ReasonLazy   = "lazy"
	ReasonReaper = "reaper"
)

// Event describes one committed change to the store
type Event struct {
	Type      EventType `json:"type"`
	Key       string    `json:"key"`
	ExpiresAt Timestamp `json:"expires_at,omitempty"`
	HasExpiry bool      `json:"has_expiry"`
	// Created is set on EventSet when the key did not exist before
	Created bool `json:"created,omitempty"`
	// Reason is set on EventExpired
	Reason string `json:"reason,omitempty"`
}

// Listener receives store events. Events are delivered after the key's lock is
// released, so two racing writers of one key may deliver out of order.
// OnEvent must not block.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(Event)

// OnEvent calls f(ev)
func (f ListenerFunc) OnEvent(ev Event) { f(ev) }

// Listeners fans an event out to several listeners
type Listeners []Listener

// OnEvent delivers ev to every listener in order
func (ls Listeners) OnEvent(ev Event) {
	for _, l := range ls {
		if l != nil {
			l.OnEvent(ev)
		}
	}
}
