package db

import "time"

// Player is one membership row. The same user may sit in many games.
type Player struct {
	ID             uint      `gorm:"primaryKey"`
	GameID         string    `gorm:"size:36;not null;uniqueIndex:idx_players_game_user"`
	UserID         string    `gorm:"size:128;not null;uniqueIndex:idx_players_game_user;index"`
	Position       int       `gorm:"not null;default:0"`
	Name           string    `gorm:"size:64;not null"`
	Accepted       bool      `gorm:"not null;default:false"`
	LastTimeInGame time.Time `gorm:"not null"`
	TellGuessed    int       `gorm:"not null;default:0"`
	ListenGuessed  int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}
