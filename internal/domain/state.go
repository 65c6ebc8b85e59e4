package domain

// ControlState is the enabled/disabled state of a group of form controls.
type ControlState int

const (
	Disabled ControlState = iota
	Enabled
)

func (s ControlState) String() string {
	if s == Enabled {
		return "enabled"
	}
	return "disabled"
}

// Event names a user or page event the controller reacts to.
type Event int

const (
	EventLoad Event = iota
	EventUpload
	EventChat
)

func (e Event) String() string {
	switch e {
	case EventLoad:
		return "load"
	case EventUpload:
		return "upload"
	case EventChat:
		return "chat"
	default:
		return "unknown"
	}
}
