package realtime

// Hooks is a fire-and-forget observer of registry state transitions.
// Implementations must never block or fail the caller; the core's
// correctness does not depend on a metrics backend being present.
type Hooks interface {
	ConnectionOpened(role string)
	ConnectionClosed(role string)
	RoomJoined(roomType string)
	RoomLeft(roomType string)
	EventRelayed(event string)
	DeliveryFault()
}

// NopHooks is the default no-op implementation.
type NopHooks struct{}

func (NopHooks) ConnectionOpened(string) {}
func (NopHooks) ConnectionClosed(string) {}
func (NopHooks) RoomJoined(string)       {}
func (NopHooks) RoomLeft(string)         {}
func (NopHooks) EventRelayed(string)     {}
func (NopHooks) DeliveryFault()          {}
