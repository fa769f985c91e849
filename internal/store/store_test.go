package store_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"explain-it/internal/config"
	"explain-it/internal/db"
	"explain-it/internal/game"
	"explain-it/internal/store"
)

type sessionStore interface {
	game.Store
	game.Ledger
}

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newGormStore(t *testing.T) *store.Gorm {
	t.Helper()
	cfg := config.Default()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "store.db")
	cfg.DBMaxOpenConns = 1
	conn, err := db.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return store.NewGorm(conn)
}

func eachStore(t *testing.T, fn func(t *testing.T, s sessionStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, store.NewMemory())
	})
	t.Run("gorm", func(t *testing.T) {
		fn(t, newGormStore(t))
	})
}

func newSession(id, code, owner string, created time.Time, players ...game.Player) *game.Session {
	return &game.Session{
		ID:          id,
		Code:        code,
		OwnerID:     owner,
		ExplainTime: created,
		Settings:    game.Settings{Difficulty: 2, WordsQty: 10, RoundDuration: 30},
		Words: game.Words{
			Current: "apple",
			Left:    []string{"pear", "plum"},
		},
		Players:   players,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func owner(id, name string) game.Player {
	return game.Player{ID: id, Name: name, Accepted: true, LastTimeInGame: base}
}

func TestCreateAndGetSession(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		session := newSession("g1", "4821", "p1", base, owner("p1", "Ann"), game.Player{ID: "p2", Name: "Bob"})
		require.NoError(t, s.CreateSession(ctx, session))

		got, err := s.GetSession(ctx, "g1")
		require.NoError(t, err)
		require.Equal(t, "4821", got.Code)
		require.Equal(t, 0, got.Turn)
		require.Equal(t, []string{"pear", "plum"}, got.Words.Left)
		require.Equal(t, game.Settings{Difficulty: 2, WordsQty: 10, RoundDuration: 30}, got.Settings)
		require.Len(t, got.Players, 2)
		require.Equal(t, "p1", got.Players[0].ID)
		require.True(t, got.Players[0].Accepted)
		require.Equal(t, "p2", got.Players[1].ID)
		require.False(t, got.Players[1].Accepted)

		_, err = s.GetSession(ctx, "missing")
		require.ErrorIs(t, err, game.ErrNotFound)
	})
}

func TestCreateSessionRejectsTakenCode(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateSession(ctx, newSession("g1", "4821", "p1", base, owner("p1", "Ann"))))
		err := s.CreateSession(ctx, newSession("g2", "4821", "p2", base, owner("p2", "Bob")))
		require.ErrorIs(t, err, game.ErrCodeTaken)
	})
}

func TestFindSessionByCode(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		first := newSession("g1", "4821", "p1", base, owner("p1", "Ann"))
		require.NoError(t, s.CreateSession(ctx, first))

		got, err := s.FindSessionByCode(ctx, "4821")
		require.NoError(t, err)
		require.Equal(t, "g1", got.ID)
		require.Len(t, got.Players, 1)

		first.Turn = game.TurnEnded
		first.UpdatedAt = base.Add(time.Minute)
		require.NoError(t, s.SaveFrequent(ctx, first))

		got, err = s.FindSessionByCode(ctx, "4821")
		require.NoError(t, err)
		require.Equal(t, "g1", got.ID)
		require.True(t, got.Ended())

		_, err = s.FindSessionByCode(ctx, "9999")
		require.ErrorIs(t, err, game.ErrNotFound)
	})
}

func TestEndedSessionCodeCanBeReused(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		first := newSession("g1", "4821", "p1", base, owner("p1", "Ann"))
		require.NoError(t, s.CreateSession(ctx, first))
		first.Turn = game.TurnEnded
		first.UpdatedAt = base.Add(time.Minute)
		require.NoError(t, s.SaveFrequent(ctx, first))

		second := newSession("g2", "4821", "p2", base.Add(2*time.Minute), owner("p2", "Bob"))
		require.NoError(t, s.CreateSession(ctx, second))
		err := s.CreateSession(ctx, newSession("g3", "4821", "p3", base, owner("p3", "Cid")))
		require.ErrorIs(t, err, game.ErrCodeTaken)

		got, err := s.FindSessionByCode(ctx, "4821")
		require.NoError(t, err)
		require.Equal(t, "g2", got.ID)
		require.False(t, got.Ended())

		second.Turn = game.TurnEnded
		second.UpdatedAt = base.Add(3 * time.Minute)
		require.NoError(t, s.SaveFrequent(ctx, second))

		got, err = s.FindSessionByCode(ctx, "4821")
		require.NoError(t, err)
		require.Equal(t, "g2", got.ID)

		codes, err := s.ActiveCodes(ctx)
		require.NoError(t, err)
		require.Empty(t, codes)
	})
}

func TestSaveSessionKeepsPresenceAndAcceptance(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		session := newSession("g1", "4821", "p1", base, owner("p1", "Ann"), game.Player{ID: "p2", Name: "Bob"})
		require.NoError(t, s.CreateSession(ctx, session))
		require.NoError(t, s.TouchMember(ctx, "g1", "p1", base.Add(time.Minute)))

		session.Turn = 3
		session.Words.Guessed = []string{"apple"}
		session.Players = []game.Player{
			{ID: "p1", Name: "Ann", Accepted: false, LastTimeInGame: base, TellGuessed: 2},
			{ID: "p3", Name: "Cid", Accepted: true},
		}
		session.UpdatedAt = base.Add(2 * time.Minute)
		require.NoError(t, s.SaveSession(ctx, session))

		got, err := s.GetSession(ctx, "g1")
		require.NoError(t, err)
		require.Equal(t, 3, got.Turn)
		require.Equal(t, []string{"apple"}, got.Words.Guessed)
		require.Len(t, got.Players, 2)
		require.Equal(t, "p1", got.Players[0].ID)
		require.True(t, got.Players[0].Accepted)
		require.Equal(t, 2, got.Players[0].TellGuessed)
		require.True(t, got.Players[0].LastTimeInGame.Equal(base.Add(time.Minute)))
		require.Equal(t, "p3", got.Players[1].ID)
		require.True(t, got.Players[1].Accepted)
	})
}

func TestWritesToEndedSessionAreRefused(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		session := newSession("g1", "4821", "p1", base, owner("p1", "Ann"))
		require.NoError(t, s.CreateSession(ctx, session))

		session.Turn = game.TurnEnded
		require.NoError(t, s.SaveFrequent(ctx, session))

		session.Turn = 4
		require.ErrorIs(t, s.SaveFrequent(ctx, session), game.ErrSessionEnded)
		require.ErrorIs(t, s.SaveSession(ctx, session), game.ErrSessionEnded)

		got, err := s.GetSession(ctx, "g1")
		require.NoError(t, err)
		require.Equal(t, game.TurnEnded, got.Turn)
		require.Equal(t, "4821", got.Code)

		missing := newSession("nope", "", "p1", base)
		require.ErrorIs(t, s.SaveFrequent(ctx, missing), game.ErrNotFound)
	})
}

func TestTouchMemberOnlyMovesForward(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateSession(ctx, newSession("g1", "4821", "p1", base, owner("p1", "Ann"))))

		later := base.Add(10 * time.Second)
		require.NoError(t, s.TouchMember(ctx, "g1", "p1", later))
		require.NoError(t, s.TouchMember(ctx, "g1", "p1", base.Add(5*time.Second)))

		member, err := s.FindMember(ctx, "g1", "p1")
		require.NoError(t, err)
		require.True(t, member.LastTimeInGame.Equal(later))

		require.ErrorIs(t, s.TouchMember(ctx, "g1", "ghost", later), game.ErrNotFound)
	})
}

func TestMembership(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateSession(ctx, newSession("g1", "4821", "p1", base, owner("p1", "Ann"))))

		require.NoError(t, s.AddMember(ctx, "g1", game.Player{ID: "p2", Name: "Bob", Accepted: true, LastTimeInGame: base}))
		require.ErrorIs(t, s.AddMember(ctx, "g1", game.Player{ID: "p2", Name: "Bob"}), game.ErrConflict)
		require.ErrorIs(t, s.AddMember(ctx, "missing", game.Player{ID: "p2"}), game.ErrNotFound)

		require.NoError(t, s.UpdateMember(ctx, "g1", game.Player{ID: "p2", Name: "Bobby", Accepted: false}))
		require.ErrorIs(t, s.UpdateMember(ctx, "g1", game.Player{ID: "p9"}), game.ErrNotFound)

		members, err := s.ListMembers(ctx, "g1")
		require.NoError(t, err)
		require.Len(t, members, 2)
		require.Equal(t, "p1", members[0].ID)
		require.Equal(t, "Bobby", members[1].Name)
		require.False(t, members[1].Accepted)

		_, err = s.FindMember(ctx, "g1", "p9")
		require.ErrorIs(t, err, game.ErrNotFound)
		_, err = s.ListMembers(ctx, "missing")
		require.ErrorIs(t, err, game.ErrNotFound)
	})
}

func TestListSessionsForPlayer(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		older := newSession("g-old", "1111", "p1", base, owner("p1", "Ann"), game.Player{ID: "p2", Name: "Bob"})
		newer := newSession("g-new", "2222", "p2", base.Add(time.Hour), owner("p2", "Bob"), game.Player{ID: "p1", Name: "Ann"})
		stale := newSession("g-stale", "3333", "p1", base.Add(2*time.Hour), owner("p1", "Ann"))
		other := newSession("g-other", "4444", "p3", base.Add(3*time.Hour), owner("p3", "Cid"))
		for _, session := range []*game.Session{older, newer, stale, other} {
			require.NoError(t, s.CreateSession(ctx, session))
		}
		stale.Turn = game.TurnEnded
		stale.UpdatedAt = base.Add(-48 * time.Hour)
		require.NoError(t, s.SaveFrequent(ctx, stale))

		summaries, err := s.ListSessionsForPlayer(ctx, "p1", base.Add(-24*time.Hour))
		require.NoError(t, err)
		require.Len(t, summaries, 2)
		require.Equal(t, "g-new", summaries[0].ID)
		require.Equal(t, "Bob", summaries[0].OwnerName)
		require.Equal(t, "g-old", summaries[1].ID)
		require.Equal(t, "Ann", summaries[1].OwnerName)
		require.Equal(t, "1111", summaries[1].Code)

		summaries, err = s.ListSessionsForPlayer(ctx, "p1", base.Add(-72*time.Hour))
		require.NoError(t, err)
		require.Len(t, summaries, 3)
		require.Equal(t, "g-stale", summaries[0].ID)
	})
}

func TestActiveCodes(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		live := newSession("g1", "1111", "p1", base, owner("p1", "Ann"))
		ended := newSession("g2", "2222", "p1", base, owner("p1", "Ann"))
		require.NoError(t, s.CreateSession(ctx, live))
		require.NoError(t, s.CreateSession(ctx, ended))
		ended.Turn = game.TurnEnded
		require.NoError(t, s.SaveFrequent(ctx, ended))

		codes, err := s.ActiveCodes(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"1111"}, codes)
	})
}

func TestDeleteSessionRemovesHistory(t *testing.T) {
	eachStore(t, func(t *testing.T, s sessionStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateSession(ctx, newSession("g1", "1111", "p1", base, owner("p1", "Ann"))))
		require.NoError(t, s.AppendUpdate(ctx, game.LedgerEntry{GameID: "g1", OwnerID: "p1", Payload: json.RawMessage(`{"turn":1}`), CreatedAt: base}))
		require.NoError(t, s.AppendWords(ctx, []game.WordEvent{{GameID: "g1", Word: "apple", Status: game.WordGuessed, CreatedAt: base}}))

		require.NoError(t, s.DeleteSession(ctx, "g1"))
		_, err := s.GetSession(ctx, "g1")
		require.ErrorIs(t, err, game.ErrNotFound)
		require.ErrorIs(t, s.DeleteSession(ctx, "g1"), game.ErrNotFound)

		codes, err := s.ActiveCodes(ctx)
		require.NoError(t, err)
		require.Empty(t, codes)
	})
}

func TestGormLedgerAndWordExport(t *testing.T) {
	ctx := context.Background()
	s := newGormStore(t)
	require.NoError(t, s.CreateSession(ctx, newSession("g1", "1111", "p1", base, owner("p1", "Ann"))))
	require.NoError(t, s.AppendUpdate(ctx, game.LedgerEntry{GameID: "g1", OwnerID: "p1", Payload: json.RawMessage(`{"turn":1}`), CreatedAt: base}))
	require.NoError(t, s.AppendWords(ctx, []game.WordEvent{
		{GameID: "g1", Word: "apple", TimeGuessed: 4, Status: game.WordGuessed, CreatedAt: base},
		{GameID: "g1", Word: "pear", TimeGuessed: 0, Status: game.WordMissed, CreatedAt: base.Add(time.Minute)},
	}))
	require.NoError(t, s.AppendWords(ctx, nil))

	var exported []game.WordEvent
	require.NoError(t, s.WordEvents(ctx, base.Add(30*time.Second), func(event game.WordEvent) error {
		exported = append(exported, event)
		return nil
	}))
	require.Len(t, exported, 1)
	require.Equal(t, "pear", exported[0].Word)
	require.Equal(t, game.WordMissed, exported[0].Status)
}

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.AppendUpdate(ctx, game.LedgerEntry{GameID: "g1", Payload: json.RawMessage(`{}`)}))
	require.NoError(t, s.AppendUpdate(ctx, game.LedgerEntry{GameID: "g2", Payload: json.RawMessage(`{}`)}))
	require.NoError(t, s.AppendWords(ctx, []game.WordEvent{{GameID: "g1", Word: "apple"}}))

	require.Len(t, s.Updates("g1"), 1)
	require.Len(t, s.Words("g1"), 1)
	require.Empty(t, s.Words("g2"))
}
