package models

// SoundDefault is the only sound value the gateway accepts besides none.
const SoundDefault = "default"

// PushMessage is one notification addressed to one device token. It is never
// persisted.
type PushMessage struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
	Sound string         `json:"sound,omitempty"`
}

// PushTicket is the gateway's result for one submitted message. It is either
// a TicketOK or a TicketError.
type PushTicket interface {
	isPushTicket()
}

// TicketOK means the gateway accepted the message.
type TicketOK struct {
	ID string
}

// TicketError means the gateway rejected the message.
type TicketError struct {
	Message string
	Details map[string]any
}

func (TicketOK) isPushTicket()    {}
func (TicketError) isPushTicket() {}

// Ticket statuses on the wire.
const (
	TicketStatusOK    = "ok"
	TicketStatusError = "error"
)

// RawTicket is the wire shape of a push ticket.
type RawTicket struct {
	Status  string         `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Decode converts the wire shape into its variant.
func (r RawTicket) Decode() PushTicket {
	if r.Status == TicketStatusError {
		return TicketError{Message: r.Message, Details: r.Details}
	}
	return TicketOK{ID: r.ID}
}

// PushResponse is the body the gateway returns on a 2xx.
type PushResponse struct {
	Data   []RawTicket `json:"data,omitempty"`
	Errors []any       `json:"errors,omitempty"`
}
