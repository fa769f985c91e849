package game

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrCodeTaken is returned by Store.CreateSession when another live
	// session already holds the room code.
	ErrCodeTaken = errors.New("room code already in use")
	// ErrSessionEnded is returned by SaveSession and SaveFrequent when the
	// stored session had already ended by the time the write landed.
	ErrSessionEnded = errors.New("session already ended")
)

// Store is the durable home of sessions and their membership rows.
// Missing sessions or members are reported as ErrNotFound.
//
// A code is unique among live sessions only. Ended sessions keep theirs,
// so FindSessionByCode returns the live holder when there is one and
// otherwise the most recently updated ended session with that code.
//
// SaveSession and SaveFrequent only write to sessions that have not ended.
// SaveSession never lowers a member's LastTimeInGame and never changes an
// existing member's Accepted flag; those belong to TouchMember and
// UpdateMember respectively.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	FindSessionByCode(ctx context.Context, code string) (*Session, error)
	SaveSession(ctx context.Context, s *Session) error
	SaveFrequent(ctx context.Context, s *Session) error
	DeleteSession(ctx context.Context, id string) error
	ListSessionsForPlayer(ctx context.Context, playerID string, recentSince time.Time) ([]Summary, error)
	ActiveCodes(ctx context.Context) ([]string, error)

	FindMember(ctx context.Context, gameID, playerID string) (*Player, error)
	AddMember(ctx context.Context, gameID string, p Player) error
	UpdateMember(ctx context.Context, gameID string, p Player) error
	TouchMember(ctx context.Context, gameID, playerID string, at time.Time) error
	ListMembers(ctx context.Context, gameID string) ([]Player, error)
}

// Ledger is the write-only audit sink for full updates.
type Ledger interface {
	AppendUpdate(ctx context.Context, entry LedgerEntry) error
	AppendWords(ctx context.Context, events []WordEvent) error
}

type LedgerEntry struct {
	GameID    string
	OwnerID   string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// CodeAllocator hands out room codes unique among live sessions. A code
// from Allocate is only provisionally held until Commit confirms that a
// session was stored with it.
type CodeAllocator interface {
	Allocate(ctx context.Context) (string, error)
	Commit(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
	Reserve(ctx context.Context, codes []string) error
}
