package store

import (
	"context"
	"errors"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite) implement
// this. It exposes sub-repositories to keep concerns tidy and testable, and it
// is the single writer of all durable entity state: every mutation in the
// system goes through one of these repos, inside a transaction where
// multi-step consistency matters.
type Store interface {
	Users() Users
	Sources() Sources
	Submissions() Submissions
	Replies() Replies
	Stars() Stars

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// ListUsers returns all users ordered by username.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Duplicate usernames surface as ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUsername changes the username and bumps updated_at.
	UpdateUsername(ctx context.Context, userID, username string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// SetAdmin flips the administrative flag.
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error

	// UpdateOTP replaces the second-factor secret, kind and counter.
	UpdateOTP(ctx context.Context, userID, secret string, kind domain.OTPKind, counter uint64) error

	// AdvanceHOTPCounter moves the event-based counter forward after a
	// successful verification.
	AdvanceHOTPCounter(ctx context.Context, userID string, counter uint64) error

	// RecordLoginFailure increments login_attempts and stamps last_attempt_at.
	RecordLoginFailure(ctx context.Context, userID string, at time.Time) error

	// ResetLoginFailures zeroes login_attempts and stamps last_access_at.
	ResetLoginFailures(ctx context.Context, userID string, accessAt time.Time) error

	// DeleteUser removes the user. Replies they authored are kept.
	DeleteUser(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Sources interface {
	// GetSourceByID returns a source by primary key.
	GetSourceByID(ctx context.Context, id string) (domain.Source, error)

	// GetSourceByFilesystemID resolves the opaque collection identifier used
	// on the wire.
	GetSourceByFilesystemID(ctx context.Context, fsID string) (domain.Source, error)

	// ListSources returns all non-pending sources ordered by last_updated_at
	// descending.
	ListSources(ctx context.Context) ([]domain.Source, error)

	// CreateSource inserts a new source. Duplicate filesystem ids or
	// designations surface as ErrAlreadyExists.
	CreateSource(ctx context.Context, s domain.Source) error

	// DesignationInUse reports whether a designation is taken by a live source.
	DesignationInUse(ctx context.Context, designation string) (bool, error)

	// UpdateDesignation rotates the designation and its slug.
	UpdateDesignation(ctx context.Context, sourceID, designation, slug string) error

	// SetFlagged marks a source as flagged for reply.
	SetFlagged(ctx context.Context, sourceID string, flagged bool) error

	// IncrementInteractionCount bumps the counter and returns the new value.
	IncrementInteractionCount(ctx context.Context, sourceID string) (int, error)

	// TouchLastUpdated stamps last_updated_at.
	TouchLastUpdated(ctx context.Context, sourceID string, at time.Time) error

	// DeleteSource removes the source; submissions, replies and the star
	// cascade per schema.
	DeleteSource(ctx context.Context, sourceID string) error
}

type Submissions interface {
	// ListBySource returns all submissions for a source ordered by filename.
	ListBySource(ctx context.Context, sourceID string) ([]domain.Submission, error)

	// ListUnreadBySource returns submissions not yet downloaded.
	ListUnreadBySource(ctx context.Context, sourceID string) ([]domain.Submission, error)

	// GetBySourceAndFilename fetches a single submission.
	GetBySourceAndFilename(ctx context.Context, sourceID, filename string) (domain.Submission, error)

	// CreateSubmission inserts a new submission record.
	CreateSubmission(ctx context.Context, sub domain.Submission) error

	// UpdateFilename rewrites the stored filename (designation rotation).
	UpdateFilename(ctx context.Context, submissionID, filename string) error

	// MarkDownloaded flips downloaded=1 for every given submission id.
	MarkDownloaded(ctx context.Context, ids []string) error

	// DeleteSubmission removes a single submission record.
	DeleteSubmission(ctx context.Context, submissionID string) error

	// UnreadCount returns the number of not-yet-downloaded submissions.
	UnreadCount(ctx context.Context, sourceID string) (int, error)
}

type Replies interface {
	// CreateReply stores an immutable reply record.
	CreateReply(ctx context.Context, r domain.Reply) error

	// ListBySource returns replies for a source ordered by creation.
	ListBySource(ctx context.Context, sourceID string) ([]domain.Reply, error)
}

type Stars interface {
	// GetStarBySource returns the star row for a source, ErrNotFound if the
	// source has never been starred or unstarred.
	GetStarBySource(ctx context.Context, sourceID string) (domain.Star, error)

	// CreateStar inserts the lazily created star row.
	CreateStar(ctx context.Context, star domain.Star) error

	// UpdateStarred flips the starred flag.
	UpdateStarred(ctx context.Context, sourceID string, starred bool) error
}
