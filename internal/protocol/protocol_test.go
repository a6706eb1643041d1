package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientEventRoundTrip(t *testing.T) {
	events := []ClientEvent{
		Join{Identity: "alice"},
		Outgoing{Author: "alice", Body: "hello 👋"},
		ClearRequest{},
	}

	for _, ev := range events {
		data, err := EncodeClientEvent(ev)
		require.NoError(t, err)

		decoded, err := DecodeClientEvent(data)
		require.NoError(t, err)
		require.Equal(t, ev, decoded)
	}
}

func TestDecodeClientEventRejectsMissingFields(t *testing.T) {
	cases := []string{
		`{"type":"join","payload":{}}`,
		`{"type":"message","payload":{"author":"alice"}}`,
		`{"type":"message","payload":{"body":"hi"}}`,
		`not json at all`,
	}
	for _, c := range cases {
		_, err := DecodeClientEvent([]byte(c))
		require.ErrorIs(t, err, ErrMalformedPayload, "input: %s", c)
	}
}

func TestDecodeServerEventHistory(t *testing.T) {
	data := []byte(`{"type":"history","payload":{"messages":[
		{"author":"alice","body":"hi","sent_at":"2025-06-01T10:00:00Z"},
		{"author":"bob","body":"yo","sent_at":"2025-06-01T09:00:00Z"}
	]}}`)

	ev, err := DecodeServerEvent(data)
	require.NoError(t, err)

	hist, ok := ev.(History)
	require.True(t, ok)
	require.Len(t, hist.Messages, 2)
	require.Equal(t, "alice", hist.Messages[0].Author)
	require.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), hist.Messages[0].SentAt)
	require.False(t, hist.Messages[0].BadStamp)
}

func TestDecodeServerEventKeepsBadTimestamps(t *testing.T) {
	data := []byte(`{"type":"new_message","payload":{"author":"bob","body":"yo","sent_at":"yesterday-ish"}}`)

	ev, err := DecodeServerEvent(data)
	require.NoError(t, err)

	nm, ok := ev.(NewMessage)
	require.True(t, ok)
	require.True(t, nm.Message.BadStamp)
	require.True(t, nm.Message.SentAt.IsZero())
	require.Equal(t, "yo", nm.Message.Body)
}

func TestDecodeServerEventMalformed(t *testing.T) {
	cases := []string{
		`{"type":"new_message","payload":{"author":"bob","sent_at":"2025-06-01T10:00:00Z"}}`,
		`{"type":"new_message","payload":{"body":"hi","sent_at":"2025-06-01T10:00:00Z"}}`,
		`{"type":"clear_rejected","payload":{}}`,
		`{"type":"history","payload":"nope"}`,
	}
	for _, c := range cases {
		_, err := DecodeServerEvent([]byte(c))
		require.ErrorIs(t, err, ErrMalformedPayload, "input: %s", c)
	}
}

func TestDecodeServerEventUnknownType(t *testing.T) {
	_, err := DecodeServerEvent([]byte(`{"type":"typing","payload":{}}`))
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestServerEventRoundTrip(t *testing.T) {
	sent := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	data, err := EncodeServerEvent(NewMessage{Message: Message{Author: "alice", Body: "hi", SentAt: sent}})
	require.NoError(t, err)
	ev, err := DecodeServerEvent(data)
	require.NoError(t, err)
	require.Equal(t, NewMessage{Message: Message{Author: "alice", Body: "hi", SentAt: sent}}, ev)

	data, err = EncodeServerEvent(ClearRejected{Reason: "rate limited"})
	require.NoError(t, err)
	ev, err = DecodeServerEvent(data)
	require.NoError(t, err)
	require.Equal(t, ClearRejected{Reason: "rate limited"}, ev)

	data, err = EncodeServerEvent(HistoryCleared{})
	require.NoError(t, err)
	ev, err = DecodeServerEvent(data)
	require.NoError(t, err)
	require.Equal(t, HistoryCleared{}, ev)
}
