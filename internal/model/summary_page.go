package model

import "time"

// SummaryPage is the published deck of one source document. Title is the
// file stem of the source PDF and identifies the record.
type SummaryPage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255;not null;uniqueIndex" json:"title"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	Summary   string    `gorm:"type:longtext" json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SummaryPage) TableName() string {
	return "summary_pages"
}
