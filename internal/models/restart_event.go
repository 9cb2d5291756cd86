package models

import (
	"time"

	"gorm.io/gorm"
)

// RestartEvent is one journaled restart sequence
type RestartEvent struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SequenceID     string         `gorm:"not null;uniqueIndex" json:"sequence_id"`
	Timestamp      time.Time      `gorm:"not null;index" json:"timestamp"`
	TriggerTitle   string         `gorm:"not null" json:"trigger_title"`
	LastSong       string         `json:"last_song,omitempty"`
	Phase          string         `gorm:"not null" json:"phase"` // last phase reached
	Terminated     int            `gorm:"not null;default:0" json:"terminated"`
	LaunchAttempts int            `gorm:"not null;default:0" json:"launch_attempts"`
	LaunchPath     string         `json:"launch_path,omitempty"`
	Launched       bool           `gorm:"not null;default:false;index" json:"launched"`
	WindowsHidden  int            `gorm:"not null;default:0" json:"windows_hidden"`
	PlaySent       bool           `gorm:"not null;default:false" json:"play_sent"`
	SkipSent       bool           `gorm:"not null;default:false" json:"skip_sent"`
	Cancelled      bool           `gorm:"not null;default:false" json:"cancelled"`
	Errors         string         `json:"errors,omitempty"`
	DurationMillis int64          `gorm:"not null;default:0" json:"duration_ms"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// Duration returns the sequence duration
func (e *RestartEvent) Duration() time.Duration {
	return time.Duration(e.DurationMillis) * time.Millisecond
}

// TriggerSummary aggregates restarts per trigger title
type TriggerSummary struct {
	TriggerTitle string  `json:"trigger_title"`
	Restarts     int     `json:"restarts"`
	Launched     int     `json:"launched"`
	Percentage   float64 `json:"percentage,omitempty"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period         ReportPeriod     `json:"period"`
	Triggers       []TriggerSummary `json:"triggers"`
	TotalRestarts  int              `json:"total_restarts"`
	Failed         int              `json:"failed"`
	Skips          int              `json:"skips"`
	Errors         int              `json:"errors"`
	AverageSeconds float64          `json:"average_seconds"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
