// Package store holds the session store implementations: an in-memory one
// for development and tests, and a gorm-backed one for Postgres or SQLite.
package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"explain-it/internal/game"
)

// Memory keeps sessions in process memory. It also acts as a ledger so a
// single value can back a whole service in tests.
type Memory struct {
	mu      sync.Mutex
	games   map[string]*game.Session
	updates []game.LedgerEntry
	words   []game.WordEvent
}

func NewMemory() *Memory {
	return &Memory{games: make(map[string]*game.Session)}
}

func (m *Memory) CreateSession(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[s.ID]; exists {
		return fmt.Errorf("%w: game %s exists", game.ErrConflict, s.ID)
	}
	if s.Code != "" && m.codeHeldLocked(s.Code, s.ID) {
		return game.ErrCodeTaken
	}
	m.games[s.ID] = cloneSession(s)
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, id)
	}
	return cloneSession(stored), nil
}

func (m *Memory) FindSessionByCode(_ context.Context, code string) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *game.Session
	for _, stored := range m.games {
		if stored.Code != code {
			continue
		}
		if !stored.Ended() {
			return cloneSession(stored), nil
		}
		if found == nil || stored.UpdatedAt.After(found.UpdatedAt) {
			found = stored
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: code %s", game.ErrNotFound, code)
	}
	return cloneSession(found), nil
}

func (m *Memory) SaveSession(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, err := m.writableLocked(s.ID)
	if err != nil {
		return err
	}
	if s.Code != "" && !s.Ended() && m.codeHeldLocked(s.Code, s.ID) {
		return game.ErrCodeTaken
	}
	players := make([]game.Player, 0, len(s.Players))
	for _, p := range s.Players {
		if existing, ok := stored.FindPlayer(p.ID); ok {
			p.Accepted = existing.Accepted
			p.LastTimeInGame = laterOf(existing.LastTimeInGame, p.LastTimeInGame)
		}
		players = append(players, p)
	}
	next := cloneSession(s)
	next.Players = players
	next.CreatedAt = stored.CreatedAt
	m.games[s.ID] = next
	return nil
}

func (m *Memory) SaveFrequent(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, err := m.writableLocked(s.ID)
	if err != nil {
		return err
	}
	stored.Code = s.Code
	stored.Turn = s.Turn
	stored.GuessedThisTurn = s.GuessedThisTurn
	stored.LastWord = cloneString(s.LastWord)
	stored.ExplainTime = s.ExplainTime
	stored.BasketChange = s.BasketChange
	stored.UpdatedAt = s.UpdatedAt
	return nil
}

func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return fmt.Errorf("%w: game %s", game.ErrNotFound, id)
	}
	delete(m.games, id)
	m.updates = slices.DeleteFunc(m.updates, func(e game.LedgerEntry) bool { return e.GameID == id })
	m.words = slices.DeleteFunc(m.words, func(e game.WordEvent) bool { return e.GameID == id })
	return nil
}

func (m *Memory) ListSessionsForPlayer(_ context.Context, playerID string, recentSince time.Time) ([]game.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summaries := make([]game.Summary, 0)
	for _, stored := range m.games {
		if !stored.HasPlayer(playerID) {
			continue
		}
		if stored.Ended() && stored.UpdatedAt.Before(recentSince) {
			continue
		}
		summary := game.Summary{
			ID:        stored.ID,
			Code:      stored.Code,
			OwnerID:   stored.OwnerID,
			Turn:      stored.Turn,
			CreatedAt: stored.CreatedAt,
			UpdatedAt: stored.UpdatedAt,
		}
		if owner, ok := stored.FindPlayer(stored.OwnerID); ok {
			summary.OwnerName = owner.Name
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID > summaries[j].ID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (m *Memory) ActiveCodes(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := make([]string, 0)
	for _, stored := range m.games {
		if stored.Code != "" && !stored.Ended() {
			codes = append(codes, stored.Code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

func (m *Memory) FindMember(_ context.Context, gameID, playerID string) (*game.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, err := m.memberLocked(gameID, playerID)
	if err != nil {
		return nil, err
	}
	copied := *player
	return &copied, nil
}

func (m *Memory) AddMember(_ context.Context, gameID string, p game.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	if stored.HasPlayer(p.ID) {
		return fmt.Errorf("%w: player %s already in game", game.ErrConflict, p.ID)
	}
	stored.Players = append(stored.Players, p)
	return nil
}

func (m *Memory) UpdateMember(_ context.Context, gameID string, p game.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, err := m.memberLocked(gameID, p.ID)
	if err != nil {
		return err
	}
	player.Name = p.Name
	player.Accepted = p.Accepted
	return nil
}

func (m *Memory) TouchMember(_ context.Context, gameID, playerID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, err := m.memberLocked(gameID, playerID)
	if err != nil {
		return err
	}
	player.LastTimeInGame = laterOf(player.LastTimeInGame, at)
	return nil
}

func (m *Memory) ListMembers(_ context.Context, gameID string) ([]game.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	return slices.Clone(stored.Players), nil
}

func (m *Memory) AppendUpdate(_ context.Context, entry game.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Payload = slices.Clone(entry.Payload)
	m.updates = append(m.updates, entry)
	return nil
}

func (m *Memory) AppendWords(_ context.Context, events []game.WordEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words = append(m.words, events...)
	return nil
}

// Updates returns the full-update log for a game in append order.
func (m *Memory) Updates(gameID string) []game.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []game.LedgerEntry
	for _, entry := range m.updates {
		if entry.GameID == gameID {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Words returns the word events for a game in append order.
func (m *Memory) Words(gameID string) []game.WordEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []game.WordEvent
	for _, event := range m.words {
		if event.GameID == gameID {
			events = append(events, event)
		}
	}
	return events
}

func (m *Memory) writableLocked(id string) (*game.Session, error) {
	stored, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, id)
	}
	if stored.Ended() {
		return nil, game.ErrSessionEnded
	}
	return stored, nil
}

func (m *Memory) memberLocked(gameID, playerID string) (*game.Player, error) {
	stored, ok := m.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	player, ok := stored.FindPlayer(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: player %s in game %s", game.ErrNotFound, playerID, gameID)
	}
	return player, nil
}

// codeHeldLocked reports whether a live session other than exceptID holds
// code.
func (m *Memory) codeHeldLocked(code, exceptID string) bool {
	for id, stored := range m.games {
		if id != exceptID && stored.Code == code && !stored.Ended() {
			return true
		}
	}
	return false
}

func cloneSession(s *game.Session) *game.Session {
	copied := *s
	copied.LastWord = cloneString(s.LastWord)
	copied.Words = game.Words{
		Current:      s.Words.Current,
		Left:         slices.Clone(s.Words.Left),
		Guessed:      slices.Clone(s.Words.Guessed),
		Missed:       slices.Clone(s.Words.Missed),
		Basket:       slices.Clone(s.Words.Basket),
		BasketStatus: slices.Clone(s.Words.BasketStatus),
	}
	copied.Players = slices.Clone(s.Players)
	return &copied
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
