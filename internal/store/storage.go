package store

import (
	"errors"
	"time"

	"adcraft/internal/workflow"
)

var (
	ErrNotFound = errors.New("session not found")

	// Sessions hold no durable state; an abandoned one is reclaimed
	// after this much inactivity.
	DefaultSessionTTL = 2 * time.Hour
)

type Storage struct {
	Sessions interface {
		Put(*workflow.Session)
		Get(id string) (*workflow.Session, error)
		Delete(id string)
		Count() int
	}
}

func NewStorage(ttl time.Duration) Storage {
	return Storage{
		Sessions: NewSessionStore(ttl),
	}
}
