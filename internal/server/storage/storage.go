// Package storage persists the shared room history in Postgres. The
// server is the timestamp authority: Save stamps each message with
// the database's clock.
package storage

import (
	"database/sql"

	_ "github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cloudzz-dev/roomchat/internal/protocol"
)

type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

func New(databaseURL string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		return nil, pkgerrors.Wrap(err, "ping database")
	}

	s := &Store{db: db, log: logger}
	if err := s.init(); err != nil {
		return nil, err
	}
	logger.Info().Msg("connected to database")
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id      SERIAL PRIMARY KEY,
			author  TEXT NOT NULL,
			body    TEXT NOT NULL,
			sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return pkgerrors.Wrap(err, "create messages table")
}

func (s *Store) Close() {
	s.db.Close()
}

// Save stores one message and returns it with the assigned timestamp.
func (s *Store) Save(author, body string) (protocol.Message, error) {
	msg := protocol.Message{Author: author, Body: body}
	err := s.db.QueryRow(`
		INSERT INTO messages (author, body)
		VALUES ($1, $2)
		RETURNING sent_at
	`, author, body).Scan(&msg.SentAt)
	if err != nil {
		return protocol.Message{}, pkgerrors.Wrap(err, "save message")
	}
	return msg, nil
}

// History returns the most recent messages, oldest first.
func (s *Store) History(limit int) ([]protocol.Message, error) {
	rows, err := s.db.Query(`
		SELECT author, body, sent_at
		FROM messages
		ORDER BY sent_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "query history")
	}
	defer rows.Close()

	var msgs []protocol.Message
	for rows.Next() {
		var m protocol.Message
		if err := rows.Scan(&m.Author, &m.Body, &m.SentAt); err != nil {
			s.log.Warn().Err(err).Msg("scan message row")
			continue
		}
		msgs = append(msgs, m)
	}

	// Reverse to get oldest first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Clear erases the shared history for everyone.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM messages")
	return pkgerrors.Wrap(err, "clear messages")
}
