package store

import (
	"time"

	"gorm.io/datatypes"

	"explain-it/internal/db"
	"explain-it/internal/game"
)

func toGameModel(s *game.Session) db.Game {
	status := make([]string, 0, len(s.Words.BasketStatus))
	for _, st := range s.Words.BasketStatus {
		status = append(status, string(st))
	}
	return db.Game{
		ID:              s.ID,
		Code:            nullableString(s.Code),
		OwnerID:         s.OwnerID,
		Turn:            s.Turn,
		GuessedThisTurn: s.GuessedThisTurn,
		ExplainTime:     s.ExplainTime,
		BasketChange:    s.BasketChange,
		LastWord:        cloneString(s.LastWord),
		CurrentWord:     s.Words.Current,
		LeftWords:       jsonSlice(s.Words.Left),
		GuessedWords:    jsonSlice(s.Words.Guessed),
		MissedWords:     jsonSlice(s.Words.Missed),
		BasketWords:     jsonSlice(s.Words.Basket),
		BasketStatus:    jsonSlice(status),
		Difficulty:      s.Settings.Difficulty,
		WordsQty:        s.Settings.WordsQty,
		RoundDuration:   s.Settings.RoundDuration,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromGameModel(record db.Game) *game.Session {
	status := make([]game.WordStatus, 0, len(record.BasketStatus))
	for _, st := range record.BasketStatus {
		status = append(status, game.WordStatus(st))
	}
	players := make([]game.Player, 0, len(record.Players))
	for _, row := range record.Players {
		players = append(players, fromPlayerModel(row))
	}
	session := &game.Session{
		ID:              record.ID,
		OwnerID:         record.OwnerID,
		Turn:            record.Turn,
		GuessedThisTurn: record.GuessedThisTurn,
		ExplainTime:     record.ExplainTime.UTC(),
		BasketChange:    record.BasketChange,
		LastWord:        cloneString(record.LastWord),
		Settings: game.Settings{
			Difficulty:    record.Difficulty,
			WordsQty:      record.WordsQty,
			RoundDuration: record.RoundDuration,
		},
		Words: game.Words{
			Current:      record.CurrentWord,
			Left:         []string(record.LeftWords),
			Guessed:      []string(record.GuessedWords),
			Missed:       []string(record.MissedWords),
			Basket:       []string(record.BasketWords),
			BasketStatus: status,
		},
		Players:   players,
		CreatedAt: record.CreatedAt.UTC(),
		UpdatedAt: record.UpdatedAt.UTC(),
	}
	if record.Code != nil {
		session.Code = *record.Code
	}
	return session
}

func toPlayerModel(gameID string, position int, p game.Player, at time.Time) db.Player {
	return db.Player{
		GameID:         gameID,
		UserID:         p.ID,
		Position:       position,
		Name:           p.Name,
		Accepted:       p.Accepted,
		LastTimeInGame: p.LastTimeInGame,
		TellGuessed:    p.TellGuessed,
		ListenGuessed:  p.ListenGuessed,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func fromPlayerModel(row db.Player) game.Player {
	return game.Player{
		ID:             row.UserID,
		Name:           row.Name,
		Accepted:       row.Accepted,
		LastTimeInGame: row.LastTimeInGame.UTC(),
		TellGuessed:    row.TellGuessed,
		ListenGuessed:  row.ListenGuessed,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func jsonSlice(values []string) datatypes.JSONSlice[string] {
	if values == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](values)
}
