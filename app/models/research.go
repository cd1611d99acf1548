package models

import "time"

// Research is the latest completed analysis snapshot for a social account.
// The six sub-documents are created together as one unit; at most one
// current Research exists per account (replacement supersedes, never
// accumulates).
type Research struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SocialAccountID uint      `gorm:"not null;index" json:"social_account_id"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`

	ScriptSuggestion   *ScriptSuggestion   `gorm:"foreignKey:ResearchID" json:"script_suggestions,omitempty"`
	OverallStrategy    *OverallStrategy    `gorm:"foreignKey:ResearchID" json:"overall_strategy,omitempty"`
	UserResearch       *UserResearch       `gorm:"foreignKey:ResearchID" json:"user_research,omitempty"`
	CompetitorResearch *CompetitorResearch `gorm:"foreignKey:ResearchID" json:"competitor_research,omitempty"`
	NicheResearch      *NicheResearch      `gorm:"foreignKey:ResearchID" json:"niche_research,omitempty"`
	TwitterResearch    *TwitterResearch    `gorm:"foreignKey:ResearchID" json:"twitter_research,omitempty"`
}

// ScriptSuggestion carries generated content scripts as a JSON array.
type ScriptSuggestion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ResearchID uint      `gorm:"not null;uniqueIndex" json:"research_id"`
	Scripts    string    `gorm:"type:longtext" json:"scripts"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// OverallStrategy carries the account-level strategy document.
type OverallStrategy struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ResearchID uint      `gorm:"not null;uniqueIndex" json:"research_id"`
	Data       string    `gorm:"type:longtext" json:"data"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// UserResearch carries research about the analysed account itself.
type UserResearch struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ResearchID uint      `gorm:"not null;uniqueIndex" json:"research_id"`
	Data       string    `gorm:"type:longtext" json:"data"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CompetitorResearch carries research about the requested competitors.
type CompetitorResearch struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ResearchID uint      `gorm:"not null;uniqueIndex" json:"research_id"`
	Data       string    `gorm:"type:longtext" json:"data"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NicheResearch carries research about the account's content niche.
type NicheResearch struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ResearchID uint      `gorm:"not null;uniqueIndex" json:"research_id"`
	Data       string    `gorm:"type:longtext" json:"data"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TwitterResearch carries the secondary-network snapshot with latest and top
// post payloads.
type TwitterResearch struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ResearchID uint      `gorm:"not null;uniqueIndex" json:"research_id"`
	LatestData string    `gorm:"type:longtext" json:"latest_data"`
	TopData    string    `gorm:"type:longtext" json:"top_data"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
