package convlog

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"
)

// Store batches conversion entries into SQLite from a background
// goroutine.
type Store struct {
	db   *sql.DB
	ch   chan *Entry
	done chan struct{}
	once sync.Once
}

func newStore(db *sql.DB) *Store {
	s := &Store{
		db:   db,
		ch:   make(chan *Entry, 1024),
		done: make(chan struct{}),
	}
	go s.flushLoop()
	return s
}

// RecordAsync queues an entry for persistence. Non-blocking; drops the
// entry if the buffer is full.
func (s *Store) RecordAsync(e *Entry) {
	select {
	case s.ch <- e:
	default:
	}
}

// Recent returns the n most recent entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(`SELECT path, format, status, error, duration_us, timestamp
		FROM conversions ORDER BY timestamp DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var errStr sql.NullString
		if err := rows.Scan(&e.Path, &e.Format, &e.Status, &errStr, &e.DurationUs, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Error = errStr.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close drains the buffer, stops the flush goroutine and closes the
// database.
func (s *Store) Close() error {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
	})
	return s.db.Close()
}

func (s *Store) flushLoop() {
	defer close(s.done)

	batch := make([]*Entry, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= 64 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("convlog: begin tx", "error", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO conversions (path, format, status, error, duration_us, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("convlog: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.Path, e.Format, e.Status, e.Error, e.DurationUs, e.Timestamp); err != nil {
			slog.Error("convlog: insert", "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("convlog: commit", "error", err)
	}
}
