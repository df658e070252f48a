package models

import "time"

type Session struct {
	SessionID       string     `gorm:"column:session_id;primaryKey" json:"session_id"`
	StartTime       *time.Time `gorm:"column:start_time;index" json:"start_time"`
	EndTime         *time.Time `gorm:"column:end_time" json:"end_time"`
	DurationMinutes *float64   `gorm:"column:duration_minutes" json:"duration_minutes"`
}

func (Session) TableName() string { return "sessions" }
