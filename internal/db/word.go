package db

import "time"

type Word struct {
	ID          uint      `gorm:"primaryKey"`
	GameID      string    `gorm:"size:36;index;not null"`
	Word        string    `gorm:"size:255;not null"`
	TimeGuessed int       `gorm:"not null;default:0"`
	Status      string    `gorm:"size:16;not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}
