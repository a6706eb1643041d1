// Package timeline keeps the client's ordered local view of the
// conversation. It only ever mutates as a whole: hydrate from history,
// append a live message, or clear everything.
package timeline

import (
	"iter"
	"sort"

	"github.com/cloudzz-dev/roomchat/internal/protocol"
)

// Timeline is owned by exactly one session and is not safe for
// concurrent use; the session's event loop is the only writer.
type Timeline struct {
	msgs []protocol.Message
}

func New() *Timeline {
	return &Timeline{}
}

// Hydrate replaces the timeline with the server-sent history, sorted
// ascending by SentAt. The sort is stable, so equal timestamps keep
// the order the server sent them in. Messages with an unparseable
// timestamp sort after every properly stamped one instead of
// poisoning the rest of the ordering.
func (t *Timeline) Hydrate(msgs []protocol.Message) {
	t.msgs = append([]protocol.Message(nil), msgs...)
	sort.SliceStable(t.msgs, func(i, j int) bool {
		a, b := t.msgs[i], t.msgs[j]
		if a.BadStamp || b.BadStamp {
			return !a.BadStamp && b.BadStamp
		}
		return a.SentAt.Before(b.SentAt)
	})
}

// Append adds one live-pushed message to the end. It trusts that the
// server broadcasts in non-decreasing time order and does not re-sort;
// the server stamps and fans out every message from a single loop, so
// per-connection delivery order is already chronological.
func (t *Timeline) Append(m protocol.Message) {
	t.msgs = append(t.msgs, m)
}

// Clear empties the timeline. Idempotent.
func (t *Timeline) Clear() {
	t.msgs = nil
}

func (t *Timeline) Len() int {
	return len(t.msgs)
}

// All returns a restartable read-only view of the current sequence.
// The view iterates the sequence as it was when All was called;
// later mutations never leak into an iteration already handed out.
func (t *Timeline) All() iter.Seq[protocol.Message] {
	snap := t.msgs
	return func(yield func(protocol.Message) bool) {
		for _, m := range snap {
			if !yield(m) {
				return
			}
		}
	}
}
