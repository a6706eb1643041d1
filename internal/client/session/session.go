// Package session is the orchestrating state machine for one chat
// participation: it binds user intent (confirm a name, compose, send,
// clear) to the connection link and the local timeline, and is the
// single source of truth the UI renders from.
//
// Everything here runs on one logical thread: the UI event loop calls
// the intent methods and feeds link events through HandleLink, so no
// two mutations ever interleave.
package session

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cloudzz-dev/roomchat/internal/client/link"
	"github.com/cloudzz-dev/roomchat/internal/protocol"
	"github.com/cloudzz-dev/roomchat/internal/timeline"
)

// State of the session lifecycle. Terminated is final.
type State int

const (
	Anonymous State = iota
	Active
	Terminated
)

var (
	// ErrEmptyIdentity rejects a blank display name.
	ErrEmptyIdentity = errors.New("display name must not be empty")
	// ErrEmptyMessage rejects sending a blank compose buffer.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrNoIdentity rejects sending before a name is confirmed.
	ErrNoIdentity = errors.New("confirm a display name first")
)

// Link is what the controller needs from the connection manager. All
// three calls are fire-and-forget; results come back as link events.
type Link interface {
	Open(identity string)
	Close()
	Send(ev protocol.ClientEvent)
}

const maxNotices = 5

// Controller owns the session state, its timeline, and its link.
type Controller struct {
	log  zerolog.Logger
	link Link
	tl   *timeline.Timeline

	state        State
	identity     string
	compose      string
	pendingClear bool
	connState    link.State

	notices []string
}

func New(l Link, logger zerolog.Logger) *Controller {
	return &Controller{
		log:  logger,
		link: l,
		tl:   timeline.New(),
	}
}

func (c *Controller) State() State          { return c.state }
func (c *Controller) Identity() string      { return c.identity }
func (c *Controller) Compose() string       { return c.compose }
func (c *Controller) PendingClear() bool    { return c.pendingClear }
func (c *Controller) ConnState() link.State { return c.connState }

// Timeline is a read reference for rendering; the controller is the
// only writer.
func (c *Controller) Timeline() *timeline.Timeline { return c.tl }

// Notices returns the recent user-visible notices, oldest first.
func (c *Controller) Notices() []string {
	return append([]string(nil), c.notices...)
}

// ConfirmIdentity trims the draft name and, if non-empty, activates
// the session and opens the connection under that identity.
func (c *Controller) ConfirmIdentity(draft string) error {
	if c.state != Anonymous {
		return nil
	}
	name := strings.TrimSpace(draft)
	if name == "" {
		return ErrEmptyIdentity
	}
	c.identity = name
	c.state = Active
	c.log.Info().Str("identity", name).Msg("identity confirmed")
	c.link.Open(name)
	return nil
}

// SetCompose replaces the in-progress message text.
func (c *Controller) SetCompose(text string) {
	c.compose = text
}

// InsertEmoji appends an opaque text fragment to the compose buffer.
func (c *Controller) InsertEmoji(fragment string) {
	c.compose += fragment
}

// Send emits the trimmed compose buffer as a message and clears it.
// The message shows up in the timeline only when the server echoes it
// back; there is no optimistic append.
func (c *Controller) Send() error {
	if c.state != Active {
		return ErrNoIdentity
	}
	body := strings.TrimSpace(c.compose)
	if body == "" {
		return ErrEmptyMessage
	}
	c.link.Send(protocol.Outgoing{Author: c.identity, Body: body})
	c.compose = ""
	return nil
}

// RequestClear arms the confirmation gate. Purely local.
func (c *Controller) RequestClear() {
	if c.state == Active {
		c.pendingClear = true
	}
}

// ConfirmClear emits the clear request if one is pending. The
// timeline is only cleared when the server confirms.
func (c *Controller) ConfirmClear() {
	if !c.pendingClear {
		return
	}
	c.pendingClear = false
	c.link.Send(protocol.ClearRequest{})
}

// CancelClear disarms the gate without emitting anything.
func (c *Controller) CancelClear() {
	c.pendingClear = false
}

// HandleLink routes one connection event into the session.
func (c *Controller) HandleLink(ev link.Event) {
	switch ev := ev.(type) {
	case link.StateEvent:
		c.connState = ev.State

	case link.ServerEvent:
		switch se := ev.Event.(type) {
		case protocol.History:
			c.tl.Hydrate(se.Messages)
		case protocol.NewMessage:
			c.tl.Append(se.Message)
		case protocol.HistoryCleared:
			c.tl.Clear()
			c.notice("chat history was cleared")
		case protocol.ClearRejected:
			c.notice("clear rejected: " + se.Reason)
		default:
			c.log.Debug().Msg("unhandled server event")
		}
	}
}

// Close ends the session for good. The link is closed whenever we
// leave Active; Terminated has no way out.
func (c *Controller) Close() {
	if c.state == Terminated {
		return
	}
	if c.state == Active {
		c.link.Close()
	}
	c.state = Terminated
}

func (c *Controller) notice(text string) {
	c.notices = append(c.notices, text)
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
}
