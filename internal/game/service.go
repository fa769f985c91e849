package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"explain-it/internal/roomcode"
)

type Options struct {
	Ledger          Ledger
	Logger          *zerolog.Logger
	RecentWindow    time.Duration
	LogUpdates      bool
	CreateMaxTries  uint
	PresenceTimeout time.Duration
	Now             func() time.Time
	NewID           func() string
}

// Service exposes the session actions used by the transport layer.
type Service struct {
	store          Store
	codes          CodeAllocator
	ledger         Ledger
	presence       *Presence
	log            zerolog.Logger
	now            func() time.Time
	newID          func() string
	recentWindow   time.Duration
	logUpdates     bool
	createMaxTries uint
}

func NewService(store Store, codes CodeAllocator, opts Options) *Service {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = timeNowUTC
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	maxTries := opts.CreateMaxTries
	if maxTries == 0 {
		maxTries = 5
	}
	window := opts.RecentWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Service{
		store:          store,
		codes:          codes,
		ledger:         opts.Ledger,
		presence:       NewPresence(store, now, opts.PresenceTimeout, logger),
		log:            logger,
		now:            now,
		newID:          newID,
		recentWindow:   window,
		logUpdates:     opts.LogUpdates,
		createMaxTries: maxTries,
	}
}

// Rehydrate reserves the codes of every live session so the allocator
// never hands them out again after a restart.
func (s *Service) Rehydrate(ctx context.Context) error {
	codes, err := s.store.ActiveCodes(ctx)
	if err != nil {
		return fmt.Errorf("load active codes: %w", err)
	}
	if err := s.codes.Reserve(ctx, codes); err != nil {
		return fmt.Errorf("reserve active codes: %w", err)
	}
	s.log.Info().Int("codes", len(codes)).Msg("room codes rehydrated")
	return nil
}

// Wait blocks until background presence writes have finished.
func (s *Service) Wait() {
	s.presence.Wait()
}

type CreateRequest struct {
	Players  []Player `json:"players"`
	Settings Settings `json:"settings"`
	Words    Words    `json:"words"`
}

func (s *Service) CreateGame(ctx context.Context, owner Identity, req CreateRequest) (Created, error) {
	if strings.TrimSpace(owner.ID) == "" {
		return Created{}, fmt.Errorf("%w: missing owner", ErrInvalid)
	}
	if err := validateWords(req.Words); err != nil {
		return Created{}, err
	}
	now := s.now()
	players, err := initialRoster(owner, req.Players, now)
	if err != nil {
		return Created{}, err
	}
	session := &Session{
		ID:          s.newID(),
		OwnerID:     owner.ID,
		Turn:        0,
		ExplainTime: now,
		Settings:    req.Settings,
		Words:       req.Words,
		Players:     players,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond

	created, err := backoff.Retry(ctx, func() (Created, error) {
		code, err := s.codes.Allocate(ctx)
		if err != nil {
			if errors.Is(err, roomcode.ErrExhausted) {
				return Created{}, backoff.Permanent(fmt.Errorf("%w: %w", ErrConflict, err))
			}
			return Created{}, backoff.Permanent(fmt.Errorf("allocate code: %w", err))
		}
		session.Code = code
		err = s.store.CreateSession(ctx, session)
		if err == nil {
			return Created{ID: session.ID, Code: code}, nil
		}
		if errors.Is(err, ErrCodeTaken) {
			// Held by a session this registry does not know about; leave it
			// claimed and draw again.
			s.log.Warn().Str("code", code).Msg("room code taken in store, retrying")
			return Created{}, err
		}
		if releaseErr := s.codes.Release(ctx, code); releaseErr != nil {
			s.log.Error().Err(releaseErr).Str("code", code).Msg("release code after failed create")
		}
		return Created{}, backoff.Permanent(fmt.Errorf("create session: %w", err))
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(s.createMaxTries))
	if err != nil {
		if errors.Is(err, ErrCodeTaken) {
			return Created{}, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return Created{}, err
	}
	if err := s.codes.Commit(ctx, created.Code); err != nil {
		// The claim lapses on its own; the store still refuses a second
		// live session with this code.
		s.log.Error().Err(err).Str("game_id", created.ID).Str("code", created.Code).Msg("commit room code")
	}
	s.log.Info().Str("game_id", created.ID).Str("code", created.Code).Str("player_id", owner.ID).Msg("game created")
	return created, nil
}

func initialRoster(owner Identity, requested []Player, now time.Time) ([]Player, error) {
	players := make([]Player, 0, len(requested)+1)
	seen := make(map[string]struct{}, len(requested)+1)
	for i, p := range requested {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("%w: players[%d] has no id", ErrInvalid, i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate player %s", ErrInvalid, p.ID)
		}
		seen[p.ID] = struct{}{}
		isOwner := p.ID == owner.ID
		if p.Name == "" && isOwner {
			p.Name = owner.Name
		}
		p.Accepted = isOwner
		p.LastTimeInGame = time.Time{}
		if isOwner {
			p.LastTimeInGame = now
		}
		players = append(players, p)
	}
	if _, ok := seen[owner.ID]; !ok {
		ownerPlayer := Player{ID: owner.ID, Name: owner.Name, Accepted: true, LastTimeInGame: now}
		players = append([]Player{ownerPlayer}, players...)
	}
	return players, nil
}

// DeleteGame removes a session and its history. Only the owner or an
// admin may do so.
func (s *Service) DeleteGame(ctx context.Context, gameID string, caller Identity) error {
	session, err := s.store.GetSession(ctx, gameID)
	if err != nil {
		return err
	}
	if session.OwnerID != caller.ID && !caller.Admin {
		return fmt.Errorf("%w: only the owner may delete a game", ErrForbidden)
	}
	if err := s.store.DeleteSession(ctx, gameID); err != nil {
		return err
	}
	// An ended game's code went back to the pool when it ended and may
	// already belong to a newer game.
	if session.Code != "" && !session.Ended() {
		if err := s.codes.Release(ctx, session.Code); err != nil {
			return fmt.Errorf("release code: %w", err)
		}
	}
	s.log.Info().Str("game_id", gameID).Str("player_id", caller.ID).Msg("game deleted")
	return nil
}

// GetPlayersStatus stamps the caller as present and reports every roster
// member's acceptance and last-seen time.
func (s *Service) GetPlayersStatus(ctx context.Context, gameID, callerID string) (PlayersStatus, error) {
	session, err := s.store.GetSession(ctx, gameID)
	if err != nil {
		return PlayersStatus{}, err
	}
	if err := s.presence.Touch(ctx, gameID, callerID); err != nil && !errors.Is(err, ErrNotFound) {
		return PlayersStatus{}, err
	}
	statuses, err := s.presence.Status(ctx, gameID)
	if err != nil {
		return PlayersStatus{}, err
	}
	return PlayersStatus{Players: statuses, Turn: session.Turn}, nil
}

// ListMyGames returns the caller's live games plus those that ended within
// the recent window, newest first.
func (s *Service) ListMyGames(ctx context.Context, callerID string) ([]Summary, error) {
	return s.store.ListSessionsForPlayer(ctx, callerID, s.now().Add(-s.recentWindow))
}

// releaseEnded returns the code of a session that has just ended to the
// pool. The record keeps the code so late joiners can still resolve it.
func (s *Service) releaseEnded(ctx context.Context, gameID, code string) error {
	if code == "" {
		return nil
	}
	if err := s.codes.Release(ctx, code); err != nil {
		return fmt.Errorf("release code: %w", err)
	}
	s.log.Info().Str("game_id", gameID).Str("code", code).Msg("game ended, code released")
	return nil
}
