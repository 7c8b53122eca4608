package wire

import "errors"

const (
	FrameTypeEvent = "event"
	FrameTypeAck   = "ack"
)

var (
	ErrInvalidFrame = errors.New("invalid frame")
	ErrMissingEvent = errors.New("missing event name")
)

// Frame is the single envelope used in both directions. Event frames carry
// Event/Args/Ack, ack frames carry Ack/Data.
type Frame struct {
	Type  string  `json:"type"`
	Event string  `json:"event,omitempty"`
	Args  []any   `json:"args,omitempty"`
	Ack   *uint64 `json:"ack,omitempty"`
	Data  any     `json:"data,omitempty"`
}

func EventFrame(event string, ack *uint64, args ...any) Frame {
	if args == nil {
		args = []any{}
	}
	return Frame{Type: FrameTypeEvent, Event: event, Args: args, Ack: ack}
}

func AckFrame(ack uint64, data any) Frame {
	return Frame{Type: FrameTypeAck, Ack: &ack, Data: data}
}

func (f Frame) HasAck() bool {
	return f.Ack != nil
}

// Arg returns the positional argument at index and whether it was sent.
func (f Frame) Arg(index int) (any, bool) {
	if index < 0 || index >= len(f.Args) {
		return nil, false
	}
	return f.Args[index], true
}

// ValidateEvent checks the structural requirements of an inbound event frame.
func (f Frame) ValidateEvent() error {
	if f.Type != FrameTypeEvent {
		return ErrInvalidFrame
	}
	if f.Event == "" {
		return ErrMissingEvent
	}
	return nil
}
