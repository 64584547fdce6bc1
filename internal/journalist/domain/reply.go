package domain

import "time"

// Reply is an immutable record of an encrypted reply sent by a journalist to
// a source. Replies are only ever created, never mutated.
type Reply struct {
	ID           string
	JournalistID string
	SourceID     string
	Filename     string
	CreatedAt    time.Time
}
