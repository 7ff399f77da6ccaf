package enum

// EventKind tags a journal record with the direction and layer of the message.
type EventKind uint16

const (
	_event_kind_beg EventKind = iota
	EventInboundApp
	EventInboundAdmin
	EventOutboundApp
	EventOutboundAdmin
	_event_kind_end
)

func (k EventKind) IsAvailable() bool {
	return k > _event_kind_beg && k < _event_kind_end
}

// Inbound reports whether the message was received from the venue.
func (k EventKind) Inbound() bool {
	return k == EventInboundApp || k == EventInboundAdmin
}

func (k EventKind) String() string {
	switch k {
	case EventInboundApp:
		return "in_app"
	case EventInboundAdmin:
		return "in_admin"
	case EventOutboundApp:
		return "out_app"
	case EventOutboundAdmin:
		return "out_admin"
	default:
		return "unknown"
	}
}
