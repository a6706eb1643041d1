// Package link owns the websocket connection for one chat session:
// dialing, the join announcement, the read pump, and reconnection
// with capped exponential backoff. Everything it learns is delivered
// on a single ordered event channel.
package link

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cloudzz-dev/roomchat/internal/protocol"
)

// State of the transport connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Event is what the manager reports: a state change or a decoded
// server event. Events arrive in transport delivery order.
type Event interface {
	linkEvent()
}

type StateEvent struct {
	State State
}

type ServerEvent struct {
	Event protocol.ServerEvent
}

func (StateEvent) linkEvent()  {}
func (ServerEvent) linkEvent() {}

const (
	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 10 * time.Second
)

// nextBackoff doubles the delay up to the cap.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Manager maintains at most one live connection. Open/Close/Send are
// safe to call from the session's event loop; the read pump runs on
// its own goroutine and only touches shared state under the mutex.
type Manager struct {
	url  string
	log  zerolog.Logger
	base time.Duration

	events chan Event

	mu     sync.Mutex
	opened bool
	stop   chan struct{}
	conn   *websocket.Conn

	// dial is swappable for tests.
	dial func(url string) (*websocket.Conn, error)
}

func New(url string, logger zerolog.Logger) *Manager {
	return &Manager{
		url:    url,
		log:    logger,
		base:   baseBackoff,
		events: make(chan Event, 64),
		dial: func(u string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.Dial(u, nil)
			return conn, pkgerrors.Wrapf(err, "dial %s", u)
		},
	}
}

// Events delivers state changes and server events in order.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Open starts the connection loop for the given identity. Calling it
// while a connection loop is already running is a programming error
// and is ignored with a log line. Reopening after Close is fine.
func (m *Manager) Open(identity string) {
	m.mu.Lock()
	if m.opened {
		m.mu.Unlock()
		m.log.Warn().Str("identity", identity).Msg("open called with connection already open")
		return
	}
	m.opened = true
	stop := make(chan struct{})
	m.stop = stop
	m.mu.Unlock()

	go m.run(identity, stop)
}

// Close tears the connection down and cancels any pending reconnect.
// No retry fires after Close returns. Safe to call when already
// closed.
func (m *Manager) Close() {
	m.mu.Lock()
	if !m.opened {
		m.mu.Unlock()
		return
	}
	m.opened = false
	close(m.stop)
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.mu.Unlock()

	// Best effort: the consumer may already be gone.
	select {
	case m.events <- StateEvent{State: Disconnected}:
	default:
	}
}

// Send emits one client event. Fire-and-forget: a write failure is
// logged and left for the read pump to notice as a broken transport.
func (m *Manager) Send(ev protocol.ClientEvent) {
	data, err := protocol.EncodeClientEvent(ev)
	if err != nil {
		m.log.Error().Err(err).Msg("encode outgoing event")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		m.log.Warn().Msg("send while not connected, dropping")
		return
	}
	if err := m.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		m.log.Warn().Err(err).Msg("write failed")
	}
}

func (m *Manager) run(identity string, stop chan struct{}) {
	delay := m.base
	for {
		m.deliver(StateEvent{State: Connecting}, stop)

		conn, err := m.dial(m.url)
		if err != nil {
			m.log.Warn().Err(err).Dur("retry_in", delay).Msg("connect failed")
			if !m.sleep(delay, stop) {
				return
			}
			delay = nextBackoff(delay)
			continue
		}

		m.mu.Lock()
		if !m.opened || m.stop != stop {
			m.mu.Unlock()
			conn.Close()
			return
		}
		m.conn = conn
		m.mu.Unlock()

		delay = m.base
		m.deliver(StateEvent{State: Connected}, stop)

		// The server holds no session across reconnects; announce on
		// every fresh connection. It answers with the history event.
		m.Send(protocol.Join{Identity: identity})

		m.readPump(conn, stop)

		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
		}
		m.mu.Unlock()

		if closed(stop) {
			return
		}
		m.log.Info().Msg("transport lost, reconnecting")
	}
}

func (m *Manager) readPump(conn *websocket.Conn, stop chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !closed(stop) {
				m.log.Warn().Err(err).Msg("read failed")
			}
			conn.Close()
			return
		}

		ev, err := protocol.DecodeServerEvent(data)
		switch {
		case err == nil:
			m.deliver(ServerEvent{Event: ev}, stop)
		case errors.Is(err, protocol.ErrUnknownEvent):
			m.log.Debug().Str("frame", string(data)).Msg("ignoring unknown event")
		default:
			m.log.Warn().Err(err).Str("frame", string(data)).Msg("dropping malformed event")
		}
	}
}

func (m *Manager) deliver(ev Event, stop chan struct{}) {
	select {
	case m.events <- ev:
	case <-stop:
	}
}

// sleep waits out a backoff delay, returning false if Close happened.
func (m *Manager) sleep(d time.Duration, stop chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stop:
		return false
	}
}

func closed(stop chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
