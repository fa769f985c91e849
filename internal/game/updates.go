package game

import (
	"context"
	"errors"
	"fmt"
	"time"
)

func (s *Service) GetFull(ctx context.Context, gameID string) (*Session, error) {
	return s.store.GetSession(ctx, gameID)
}

// GetFrequent returns the hot fields and records the caller as present.
// The presence write does not hold up the response.
func (s *Service) GetFrequent(ctx context.Context, gameID, callerID string) (Frequent, error) {
	session, err := s.store.GetSession(ctx, gameID)
	if err != nil {
		return Frequent{}, err
	}
	if callerID != "" {
		s.presence.TouchAsync(gameID, callerID)
	}
	return session.Frequent(), nil
}

// UpdateFull replaces the session aggregate with the caller's copy. The
// caller must be on the roster as it stood before the update.
//
// Existing members keep their stored acceptance and presence; the payload
// only contributes names and tallies for them. An empty player list leaves
// the roster as it is.
func (s *Service) UpdateFull(ctx context.Context, gameID, callerID string, update FullUpdate) (Result, error) {
	session, err := s.store.GetSession(ctx, gameID)
	if err != nil {
		return ResultApplied, err
	}
	move, err := gate(session.Turn, update.Turn)
	if err != nil {
		return ResultApplied, err
	}
	if move == transitionRepeat {
		return ResultAlreadyEnded, nil
	}
	if !session.HasPlayer(callerID) {
		return ResultApplied, fmt.Errorf("%w: %s is not in game %s", ErrForbidden, callerID, gameID)
	}
	if err := validateWords(update.Words); err != nil {
		return ResultApplied, err
	}
	if err := validateJudged(update.WordsData); err != nil {
		return ResultApplied, err
	}
	players, err := mergeRoster(session, update.Players)
	if err != nil {
		return ResultApplied, err
	}

	now := s.now()
	session.Turn = update.Turn
	session.GuessedThisTurn = update.GuessedThisTurn
	session.ExplainTime = update.ExplainTime
	session.BasketChange = update.BasketChange
	session.LastWord = update.LastWord
	session.Settings = update.Settings
	session.Words = update.Words
	session.Players = players
	session.UpdatedAt = now

	if err := s.store.SaveSession(ctx, session); err != nil {
		if errors.Is(err, ErrSessionEnded) {
			return ResultAlreadyEnded, nil
		}
		return ResultApplied, err
	}
	if move == transitionEnd {
		if err := s.releaseEnded(ctx, gameID, session.Code); err != nil {
			return ResultApplied, err
		}
	}
	if err := s.recordFullUpdate(ctx, session, update.WordsData, now); err != nil {
		return ResultApplied, err
	}
	return ResultApplied, nil
}

// UpdateFrequent writes the hot fields. Any caller holding the game id may
// use it; it is not checked against the roster.
func (s *Service) UpdateFrequent(ctx context.Context, gameID string, update Frequent) (Result, error) {
	session, err := s.store.GetSession(ctx, gameID)
	if err != nil {
		return ResultApplied, err
	}
	move, err := gate(session.Turn, update.Turn)
	if err != nil {
		return ResultApplied, err
	}
	if move == transitionRepeat {
		return ResultAlreadyEnded, nil
	}

	session.Turn = update.Turn
	session.GuessedThisTurn = update.GuessedThisTurn
	session.LastWord = update.LastWord
	session.ExplainTime = update.ExplainTime
	session.BasketChange = update.BasketChange
	session.UpdatedAt = s.now()
	if err := s.store.SaveFrequent(ctx, session); err != nil {
		if errors.Is(err, ErrSessionEnded) {
			return ResultAlreadyEnded, nil
		}
		return ResultApplied, err
	}
	if move == transitionEnd {
		if err := s.releaseEnded(ctx, gameID, session.Code); err != nil {
			return ResultApplied, err
		}
	}
	return ResultApplied, nil
}

func mergeRoster(session *Session, incoming []Player) ([]Player, error) {
	if len(incoming) == 0 {
		return session.Players, nil
	}
	players := make([]Player, 0, len(incoming))
	seen := make(map[string]struct{}, len(incoming))
	for i, p := range incoming {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: players[%d] has no id", ErrInvalid, i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate player %s", ErrInvalid, p.ID)
		}
		seen[p.ID] = struct{}{}
		if existing, ok := session.FindPlayer(p.ID); ok {
			p.Accepted = existing.Accepted
			p.LastTimeInGame = existing.LastTimeInGame
		} else {
			p.LastTimeInGame = time.Time{}
		}
		players = append(players, p)
	}
	return players, nil
}

func validateWords(words Words) error {
	if len(words.BasketStatus) > len(words.Basket) {
		return fmt.Errorf("%w: basketStatus longer than basketWords", ErrInvalid)
	}
	for i, status := range words.BasketStatus {
		if !status.Valid() {
			return fmt.Errorf("%w: basketStatus[%d] is %q", ErrInvalid, i, status)
		}
	}
	return nil
}
