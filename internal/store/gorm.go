package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"explain-it/internal/db"
	"explain-it/internal/game"
)

// Gorm persists sessions through gorm. It also implements game.Ledger.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(conn *gorm.DB) *Gorm {
	return &Gorm{db: conn}
}

func (g *Gorm) CreateSession(ctx context.Context, s *game.Session) error {
	record := toGameModel(s)
	record.Players = make([]db.Player, 0, len(s.Players))
	for i, p := range s.Players {
		record.Players = append(record.Players, toPlayerModel(s.ID, i, p, s.CreatedAt))
	}
	err := g.db.WithContext(ctx).Create(&record).Error
	if isUniqueViolation(err) {
		return game.ErrCodeTaken
	}
	return err
}

func (g *Gorm) GetSession(ctx context.Context, id string) (*game.Session, error) {
	var record db.Game
	err := g.db.WithContext(ctx).
		Preload("Players", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC, id ASC") }).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, notFound(err, "game %s", id)
	}
	return fromGameModel(record), nil
}

func (g *Gorm) FindSessionByCode(ctx context.Context, code string) (*game.Session, error) {
	var record db.Game
	err := g.db.WithContext(ctx).
		Preload("Players", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC, id ASC") }).
		Where("code = ?", code).
		Order(fmt.Sprintf("CASE WHEN turn = %d THEN 1 ELSE 0 END", game.TurnEnded)).
		Order("updated_at DESC").
		Take(&record).Error
	if err != nil {
		return nil, notFound(err, "code %s", code)
	}
	return fromGameModel(record), nil
}

func (g *Gorm) SaveSession(ctx context.Context, s *game.Session) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := toGameModel(s)
		fields := map[string]any{
			"code":              record.Code,
			"turn":              record.Turn,
			"guessed_this_turn": record.GuessedThisTurn,
			"explain_time":      record.ExplainTime,
			"basket_change":     record.BasketChange,
			"last_word":         record.LastWord,
			"current_word":      record.CurrentWord,
			"left_words":        record.LeftWords,
			"guessed_words":     record.GuessedWords,
			"missed_words":      record.MissedWords,
			"basket_words":      record.BasketWords,
			"basket_status":     record.BasketStatus,
			"difficulty":        record.Difficulty,
			"words_qty":         record.WordsQty,
			"round_duration":    record.RoundDuration,
			"updated_at":        record.UpdatedAt,
		}
		if err := updateLiveGame(tx, s.ID, fields); err != nil {
			return err
		}
		return replacePlayers(tx, s)
	})
	if isUniqueViolation(err) {
		return game.ErrCodeTaken
	}
	return err
}

func (g *Gorm) SaveFrequent(ctx context.Context, s *game.Session) error {
	fields := map[string]any{
		"code":              nullableString(s.Code),
		"turn":              s.Turn,
		"guessed_this_turn": s.GuessedThisTurn,
		"last_word":         s.LastWord,
		"explain_time":      s.ExplainTime,
		"basket_change":     s.BasketChange,
		"updated_at":        s.UpdatedAt,
	}
	return updateLiveGame(g.db.WithContext(ctx), s.ID, fields)
}

// updateLiveGame writes fields to a game that has not ended.
func updateLiveGame(tx *gorm.DB, id string, fields map[string]any) error {
	result := tx.Model(&db.Game{}).
		Where("id = ? AND turn <> ?", id, game.TurnEnded).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&db.Game{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: game %s", game.ErrNotFound, id)
	}
	return game.ErrSessionEnded
}

// replacePlayers brings the membership rows in line with the session
// roster. Acceptance and presence of existing rows are left alone.
func replacePlayers(tx *gorm.DB, s *game.Session) error {
	var existing []db.Player
	if err := tx.Where("game_id = ?", s.ID).Find(&existing).Error; err != nil {
		return err
	}
	byUser := make(map[string]db.Player, len(existing))
	for _, row := range existing {
		byUser[row.UserID] = row
	}
	keep := make([]string, 0, len(s.Players))
	for i, p := range s.Players {
		keep = append(keep, p.ID)
		row, ok := byUser[p.ID]
		if !ok {
			record := toPlayerModel(s.ID, i, p, s.UpdatedAt)
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			continue
		}
		if err := tx.Model(&db.Player{}).Where("id = ?", row.ID).Updates(map[string]any{
			"position":       i,
			"name":           p.Name,
			"tell_guessed":   p.TellGuessed,
			"listen_guessed": p.ListenGuessed,
			"updated_at":     s.UpdatedAt,
		}).Error; err != nil {
			return err
		}
	}
	remove := tx.Where("game_id = ?", s.ID)
	if len(keep) > 0 {
		remove = remove.Where("user_id NOT IN ?", keep)
	}
	return remove.Delete(&db.Player{}).Error
}

func (g *Gorm) DeleteSession(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", id).Delete(&db.Word{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", id).Delete(&db.GameUpdate{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", id).Delete(&db.Player{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&db.Game{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: game %s", game.ErrNotFound, id)
		}
		return nil
	})
}

type summaryRow struct {
	ID        string
	Code      *string
	OwnerID   string
	OwnerName *string
	Turn      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (g *Gorm) ListSessionsForPlayer(ctx context.Context, playerID string, recentSince time.Time) ([]game.Summary, error) {
	var rows []summaryRow
	err := g.db.WithContext(ctx).
		Table("games").
		Select("games.id, games.code, games.owner_id, owner.name AS owner_name, games.turn, games.created_at, games.updated_at").
		Joins("JOIN players AS member ON member.game_id = games.id AND member.user_id = ?", playerID).
		Joins("LEFT JOIN players AS owner ON owner.game_id = games.id AND owner.user_id = games.owner_id").
		Where("games.turn <> ? OR games.updated_at >= ?", game.TurnEnded, recentSince).
		Order("games.created_at DESC, games.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	summaries := make([]game.Summary, 0, len(rows))
	for _, row := range rows {
		summary := game.Summary{
			ID:        row.ID,
			OwnerID:   row.OwnerID,
			Turn:      row.Turn,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
		if row.Code != nil {
			summary.Code = *row.Code
		}
		if row.OwnerName != nil {
			summary.OwnerName = *row.OwnerName
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (g *Gorm) ActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := g.db.WithContext(ctx).
		Model(&db.Game{}).
		Where("code IS NOT NULL AND turn <> ?", game.TurnEnded).
		Order("code ASC").
		Pluck("code", &codes).Error
	return codes, err
}

func (g *Gorm) FindMember(ctx context.Context, gameID, playerID string) (*game.Player, error) {
	var row db.Player
	err := g.db.WithContext(ctx).
		Where("game_id = ? AND user_id = ?", gameID, playerID).
		First(&row).Error
	if err != nil {
		return nil, notFound(err, "player %s in game %s", playerID, gameID)
	}
	player := fromPlayerModel(row)
	return &player, nil
}

func (g *Gorm) AddMember(ctx context.Context, gameID string, p game.Player) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gameCount int64
		if err := tx.Model(&db.Game{}).Where("id = ?", gameID).Count(&gameCount).Error; err != nil {
			return err
		}
		if gameCount == 0 {
			return fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
		}
		var position int64
		if err := tx.Model(&db.Player{}).Where("game_id = ?", gameID).Count(&position).Error; err != nil {
			return err
		}
		record := toPlayerModel(gameID, int(position), p, time.Now().UTC())
		return tx.Create(&record).Error
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: player %s already in game", game.ErrConflict, p.ID)
	}
	return err
}

func (g *Gorm) UpdateMember(ctx context.Context, gameID string, p game.Player) error {
	result := g.db.WithContext(ctx).
		Model(&db.Player{}).
		Where("game_id = ? AND user_id = ?", gameID, p.ID).
		Updates(map[string]any{
			"name":       p.Name,
			"accepted":   p.Accepted,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: player %s in game %s", game.ErrNotFound, p.ID, gameID)
	}
	return nil
}

// TouchMember moves last_time_in_game forward to at. An older at leaves the
// row untouched.
func (g *Gorm) TouchMember(ctx context.Context, gameID, playerID string, at time.Time) error {
	conn := g.db.WithContext(ctx)
	result := conn.Model(&db.Player{}).
		Where("game_id = ? AND user_id = ? AND last_time_in_game < ?", gameID, playerID, at).
		UpdateColumn("last_time_in_game", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := conn.Model(&db.Player{}).Where("game_id = ? AND user_id = ?", gameID, playerID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: player %s in game %s", game.ErrNotFound, playerID, gameID)
	}
	return nil
}

func (g *Gorm) ListMembers(ctx context.Context, gameID string) ([]game.Player, error) {
	conn := g.db.WithContext(ctx)
	var gameCount int64
	if err := conn.Model(&db.Game{}).Where("id = ?", gameID).Count(&gameCount).Error; err != nil {
		return nil, err
	}
	if gameCount == 0 {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	var rows []db.Player
	if err := conn.Where("game_id = ?", gameID).Order("position ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	players := make([]game.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, fromPlayerModel(row))
	}
	return players, nil
}

func (g *Gorm) AppendUpdate(ctx context.Context, entry game.LedgerEntry) error {
	record := db.GameUpdate{
		GameID:    entry.GameID,
		OwnerID:   entry.OwnerID,
		Payload:   datatypes.JSON(entry.Payload),
		CreatedAt: entry.CreatedAt,
	}
	return g.db.WithContext(ctx).Create(&record).Error
}

func (g *Gorm) AppendWords(ctx context.Context, events []game.WordEvent) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]db.Word, 0, len(events))
	for _, event := range events {
		records = append(records, db.Word{
			GameID:      event.GameID,
			Word:        event.Word,
			TimeGuessed: event.TimeGuessed,
			Status:      string(event.Status),
			CreatedAt:   event.CreatedAt,
		})
	}
	return g.db.WithContext(ctx).CreateInBatches(records, 200).Error
}

// WordEvents streams the word ledger recorded at or after since, oldest
// first, in batches.
func (g *Gorm) WordEvents(ctx context.Context, since time.Time, fn func(game.WordEvent) error) error {
	var batch []db.Word
	result := g.db.WithContext(ctx).
		Where("created_at >= ?", since).
		FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
			for _, row := range batch {
				if err := fn(game.WordEvent{
					GameID:      row.GameID,
					Word:        row.Word,
					TimeGuessed: row.TimeGuessed,
					Status:      game.WordStatus(row.Status),
					CreatedAt:   row.CreatedAt,
				}); err != nil {
					return err
				}
			}
			return nil
		})
	return result.Error
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: "+format, append([]any{game.ErrNotFound}, args...)...)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
