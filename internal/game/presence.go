package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type presenceStore interface {
	TouchMember(ctx context.Context, gameID, playerID string, at time.Time) error
	ListMembers(ctx context.Context, gameID string) ([]Player, error)
}

// Presence records when each player was last seen in a game. It only
// reports timestamps; deciding who is offline is up to the client.
type Presence struct {
	store   presenceStore
	now     func() time.Time
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

func NewPresence(store presenceStore, now func() time.Time, timeout time.Duration, log zerolog.Logger) *Presence {
	if now == nil {
		now = timeNowUTC
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Presence{
		store:   store,
		now:     now,
		timeout: timeout,
		log:     log,
	}
}

// Touch stamps the player with the server clock. The store keeps the later
// of the stored and the new value.
func (p *Presence) Touch(ctx context.Context, gameID, playerID string) error {
	return p.store.TouchMember(ctx, gameID, playerID, p.now())
}

// TouchAsync runs Touch in the background. Failures are logged; a caller
// that is not on the roster is not a failure.
func (p *Presence) TouchAsync(gameID, playerID string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		err := p.Touch(ctx, gameID, playerID)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotFound):
			p.log.Debug().Str("game_id", gameID).Str("player_id", playerID).Msg("presence touch for non-member")
		default:
			p.log.Warn().Err(err).Str("game_id", gameID).Str("player_id", playerID).Msg("presence touch failed")
		}
	}()
}

func (p *Presence) Status(ctx context.Context, gameID string) ([]PlayerStatus, error) {
	members, err := p.store.ListMembers(ctx, gameID)
	if err != nil {
		return nil, err
	}
	statuses := make([]PlayerStatus, 0, len(members))
	for _, member := range members {
		statuses = append(statuses, PlayerStatus{
			PlayerID:       member.ID,
			Name:           member.Name,
			Accepted:       member.Accepted,
			LastTimeInGame: member.LastTimeInGame,
		})
	}
	return statuses, nil
}

// Wait blocks until every pending TouchAsync has finished.
func (p *Presence) Wait() {
	p.wg.Wait()
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
