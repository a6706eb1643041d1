// Package protocol defines the wire events exchanged between the chat
// client and the server: a JSON envelope carrying a typed payload per
// event. Both sides share this package; it holds no state.
package protocol

import (
	"encoding/json"
	"errors"
	"time"
)

// Event type names as they appear on the wire.
const (
	TypeJoin    = "join"
	TypeMessage = "message"
	TypeClear   = "clear"

	TypeHistory        = "history"
	TypeNewMessage     = "new_message"
	TypeHistoryCleared = "history_cleared"
	TypeClearRejected  = "clear_rejected"
)

var (
	// ErrMalformedPayload means a received event was missing required
	// fields or was not valid JSON. The event is dropped, never fatal.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnknownEvent means the event type is not one we recognize.
	ErrUnknownEvent = errors.New("unknown event type")
)

// Envelope wraps every wire event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is one chat message. The server is the timestamp authority;
// clients never fabricate SentAt. BadStamp marks a message whose
// sent_at string could not be parsed — it is kept, not dropped, and
// sorts after all properly stamped messages.
type Message struct {
	Author   string
	Body     string
	SentAt   time.Time
	BadStamp bool
}

type wireMessage struct {
	Author string `json:"author"`
	Body   string `json:"body"`
	SentAt string `json:"sent_at"`
}

func toWire(m Message) wireMessage {
	return wireMessage{
		Author: m.Author,
		Body:   m.Body,
		SentAt: m.SentAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromWire(w wireMessage) Message {
	m := Message{Author: w.Author, Body: w.Body}
	ts, err := time.Parse(time.RFC3339Nano, w.SentAt)
	if err != nil {
		m.BadStamp = true
		return m
	}
	m.SentAt = ts
	return m
}

// --- Client → server events ---

// ClientEvent is the tagged variant of everything a client may send.
type ClientEvent interface {
	clientType() string
}

// Join announces presence under a display name. Fire-and-forget, no
// acknowledgment.
type Join struct {
	Identity string `json:"identity"`
}

// Outgoing submits a new chat message for broadcast.
type Outgoing struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// ClearRequest asks the server to erase shared history for everyone.
type ClearRequest struct{}

func (Join) clientType() string         { return TypeJoin }
func (Outgoing) clientType() string     { return TypeMessage }
func (ClearRequest) clientType() string { return TypeClear }

// EncodeClientEvent marshals a client event into its wire form.
func EncodeClientEvent(ev ClientEvent) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: ev.clientType(), Payload: payload})
}

// DecodeClientEvent parses a wire frame received by the server.
func DecodeClientEvent(data []byte) (ClientEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformedPayload
	}

	switch env.Type {
	case TypeJoin:
		var ev Join
		if err := json.Unmarshal(env.Payload, &ev); err != nil || ev.Identity == "" {
			return nil, ErrMalformedPayload
		}
		return ev, nil

	case TypeMessage:
		var ev Outgoing
		if err := json.Unmarshal(env.Payload, &ev); err != nil || ev.Author == "" || ev.Body == "" {
			return nil, ErrMalformedPayload
		}
		return ev, nil

	case TypeClear:
		return ClearRequest{}, nil

	default:
		return nil, ErrUnknownEvent
	}
}

// --- Server → client events ---

// ServerEvent is the tagged variant of everything the server pushes.
type ServerEvent interface {
	serverType() string
}

// History carries the stored conversation, sent once per fresh
// connection. Order is not guaranteed; the timeline sorts.
type History struct {
	Messages []Message
}

// NewMessage broadcasts one newly accepted message.
type NewMessage struct {
	Message Message
}

// HistoryCleared tells every client the shared history was erased.
type HistoryCleared struct{}

// ClearRejected tells the requester its clear was denied.
type ClearRejected struct {
	Reason string `json:"reason"`
}

func (History) serverType() string        { return TypeHistory }
func (NewMessage) serverType() string     { return TypeNewMessage }
func (HistoryCleared) serverType() string { return TypeHistoryCleared }
func (ClearRejected) serverType() string  { return TypeClearRejected }

type wireHistory struct {
	Messages []wireMessage `json:"messages"`
}

// EncodeServerEvent marshals a server event into its wire form.
func EncodeServerEvent(ev ServerEvent) ([]byte, error) {
	var payload interface{}
	switch ev := ev.(type) {
	case History:
		wh := wireHistory{Messages: make([]wireMessage, 0, len(ev.Messages))}
		for _, m := range ev.Messages {
			wh.Messages = append(wh.Messages, toWire(m))
		}
		payload = wh
	case NewMessage:
		payload = toWire(ev.Message)
	case HistoryCleared:
		payload = struct{}{}
	case ClearRejected:
		payload = ev
	default:
		return nil, ErrUnknownEvent
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: ev.serverType(), Payload: raw})
}

// DecodeServerEvent parses a wire frame received by the client.
func DecodeServerEvent(data []byte) (ServerEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformedPayload
	}

	switch env.Type {
	case TypeHistory:
		var wh wireHistory
		if err := json.Unmarshal(env.Payload, &wh); err != nil {
			return nil, ErrMalformedPayload
		}
		ev := History{Messages: make([]Message, 0, len(wh.Messages))}
		for _, w := range wh.Messages {
			ev.Messages = append(ev.Messages, fromWire(w))
		}
		return ev, nil

	case TypeNewMessage:
		var w wireMessage
		if err := json.Unmarshal(env.Payload, &w); err != nil || w.Author == "" || w.Body == "" {
			return nil, ErrMalformedPayload
		}
		return NewMessage{Message: fromWire(w)}, nil

	case TypeHistoryCleared:
		return HistoryCleared{}, nil

	case TypeClearRejected:
		var ev ClearRejected
		if err := json.Unmarshal(env.Payload, &ev); err != nil || ev.Reason == "" {
			return nil, ErrMalformedPayload
		}
		return ev, nil

	default:
		return nil, ErrUnknownEvent
	}
}
