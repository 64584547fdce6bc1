package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Submission is a single encrypted artifact belonging to a source.
type Submission struct {
	ID         string
	SourceID   string
	Filename   string
	Downloaded bool
	CreatedAt  time.Time
}

// ErrBadFilename reports a submission filename that does not follow the
// <sequence>-<slug>-<suffix> convention.
var ErrBadFilename = errors.New("domain: malformed submission filename")

// SubmissionName is the decomposed form of a submission filename, e.g.
// "3-dour_bicycle-reply.gpg" -> {3, "dour_bicycle", "reply.gpg"}. The
// sequence number orders the collection; the slug tracks the source's
// designation at write time; the suffix identifies the artifact kind.
type SubmissionName struct {
	Sequence int
	Slug     string
	Suffix   string
}

// ParseSubmissionName splits a submission filename into its parts. Slugs
// never contain dashes, so the name has exactly three dash-separated fields.
func ParseSubmissionName(filename string) (SubmissionName, error) {
	parts := strings.SplitN(filename, "-", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return SubmissionName{}, ErrBadFilename
	}

	seq, err := strconv.Atoi(parts[0])
	if err != nil || seq < 1 {
		return SubmissionName{}, ErrBadFilename
	}

	return SubmissionName{Sequence: seq, Slug: parts[1], Suffix: parts[2]}, nil
}

// WithSlug returns the filename rewritten for a new designation slug,
// preserving the sequence number and suffix.
func (n SubmissionName) WithSlug(slug string) string {
	return fmt.Sprintf("%d-%s-%s", n.Sequence, slug, n.Suffix)
}

// ReplyFilename derives the artifact name for the nth interaction with a
// source under its current slug.
func ReplyFilename(sequence int, slug string) string {
	return fmt.Sprintf("%d-%s-reply.gpg", sequence, slug)
}
