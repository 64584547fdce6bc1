package domain

import "time"

// Source is an anonymous collection of submitted material. The FilesystemID
// is immutable for the source's lifetime; the Designation rotates but must
// stay unique among live sources.
type Source struct {
	ID               string
	FilesystemID     string // opaque filesystem-safe identifier
	Designation      string // human-readable rotating pseudonym
	Slug             string // filesystem form of the designation
	Flagged          bool   // flagged for reply
	Pending          bool   // no first submission yet
	InteractionCount int
	LastUpdatedAt    time.Time
	CreatedAt        time.Time
}

// Star records the starred state of a source. At most one per source,
// created lazily on the first star/unstar action.
type Star struct {
	ID       string
	SourceID string
	Starred  bool
}
