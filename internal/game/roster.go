package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// JoinGame resolves a live session by room code and puts the caller on its
// roster as accepted. Joining twice leaves a single entry.
func (s *Service) JoinGame(ctx context.Context, code string, caller Identity, nameOverride string) (*Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrInvalid)
	}
	session, err := s.store.FindSessionByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if session.Ended() {
		return nil, ErrUnprocessable
	}

	nameOverride = strings.TrimSpace(nameOverride)
	member, err := s.store.FindMember(ctx, session.ID, caller.ID)
	if errors.Is(err, ErrNotFound) {
		name := nameOverride
		if name == "" {
			name = caller.Name
		}
		player := Player{
			ID:             caller.ID,
			Name:           name,
			Accepted:       true,
			LastTimeInGame: s.now(),
		}
		err = s.store.AddMember(ctx, session.ID, player)
		if err == nil {
			s.log.Info().Str("game_id", session.ID).Str("player_id", caller.ID).Msg("player joined")
			return s.store.GetSession(ctx, session.ID)
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		// A concurrent join by the same caller added the row first.
		member, err = s.store.FindMember(ctx, session.ID, caller.ID)
	}
	if err != nil {
		return nil, err
	}
	member.Accepted = true
	if nameOverride != "" {
		member.Name = nameOverride
	}
	if err := s.store.UpdateMember(ctx, session.ID, *member); err != nil {
		return nil, err
	}
	return s.store.GetSession(ctx, session.ID)
}

// AddPlayer inserts a player directly, bypassing the room code. The new
// entry starts unaccepted unless the request says otherwise.
func (s *Service) AddPlayer(ctx context.Context, gameID string, player Player) error {
	if strings.TrimSpace(player.ID) == "" {
		return fmt.Errorf("%w: missing player id", ErrInvalid)
	}
	session, err := s.store.GetSession(ctx, gameID)
	if err != nil {
		return err
	}
	if session.Ended() {
		return ErrUnprocessable
	}
	if session.HasPlayer(player.ID) {
		return fmt.Errorf("%w: player %s already in game", ErrConflict, player.ID)
	}
	player.LastTimeInGame = s.now()
	if err := s.store.AddMember(ctx, gameID, player); err != nil {
		return err
	}
	s.log.Info().Str("game_id", gameID).Str("player_id", player.ID).Msg("player added")
	return nil
}

// AcceptGame marks the caller's invitation as accepted and returns the
// current session.
func (s *Service) AcceptGame(ctx context.Context, gameID, callerID string) (*Session, error) {
	if err := s.setAccepted(ctx, gameID, callerID, true); err != nil {
		return nil, err
	}
	return s.store.GetSession(ctx, gameID)
}

func (s *Service) RejectGame(ctx context.Context, gameID, callerID string) error {
	return s.setAccepted(ctx, gameID, callerID, false)
}

func (s *Service) setAccepted(ctx context.Context, gameID, callerID string, accepted bool) error {
	member, err := s.store.FindMember(ctx, gameID, callerID)
	if err != nil {
		return err
	}
	if member.Accepted == accepted {
		return nil
	}
	member.Accepted = accepted
	return s.store.UpdateMember(ctx, gameID, *member)
}
