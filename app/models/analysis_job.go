package models

import (
	"encoding/json"
	"time"
)

const (
	AnalysisJobStatusPending  = "pending"
	AnalysisJobStatusRunning  = "running"
	AnalysisJobStatusComplete = "complete"
	AnalysisJobStatusFailed   = "failed"
)

// AnalysisJob is the bookkeeping record for one analysis run. The wallet is
// debited before the row is created; the recorded bucket split is what a
// refund restores if the run fails. Status only ever moves forward:
// pending -> running -> complete|failed.
type AnalysisJob struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UUID            string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	SocialAccountID uint       `gorm:"not null;index" json:"social_account_id"`
	Status          string     `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CompetitorsJSON string     `gorm:"type:text" json:"-"`
	CompetitorCount int        `gorm:"not null;default:0" json:"competitor_count"`
	Cost            int64      `gorm:"not null;default:0" json:"cost"`
	MonthlyCharged  int64      `gorm:"not null;default:0" json:"monthly_charged"`
	TopupCharged    int64      `gorm:"not null;default:0" json:"topup_charged"`
	Refunded        bool       `gorm:"default:false" json:"refunded"`
	ErrorMsg        string     `gorm:"type:varchar(512)" json:"error_msg,omitempty"`
	StartedAt       *time.Time `gorm:"type:timestamp;default:null" json:"started_at,omitempty"`
	FinishedAt      *time.Time `gorm:"type:timestamp;default:null" json:"finished_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the status is final and immutable.
func IsTerminalAnalysisStatus(status string) bool {
	return status == AnalysisJobStatusComplete || status == AnalysisJobStatusFailed
}

// CanTransitionAnalysisStatus reports whether a job may move from one status
// to another. No transition skips running and terminal states never revert.
func CanTransitionAnalysisStatus(from, to string) bool {
	switch from {
	case AnalysisJobStatusPending:
		return to == AnalysisJobStatusRunning
	case AnalysisJobStatusRunning:
		return to == AnalysisJobStatusComplete || to == AnalysisJobStatusFailed
	default:
		return false
	}
}

// Competitors decodes the stored competitor username list.
func (j *AnalysisJob) Competitors() []string {
	if j.CompetitorsJSON == "" {
		return nil
	}
	var usernames []string
	if err := json.Unmarshal([]byte(j.CompetitorsJSON), &usernames); err != nil {
		return nil
	}
	return usernames
}

// SetCompetitors stores the competitor username list and its count.
func (j *AnalysisJob) SetCompetitors(usernames []string) error {
	if len(usernames) == 0 {
		j.CompetitorsJSON = ""
		j.CompetitorCount = 0
		return nil
	}
	data, err := json.Marshal(usernames)
	if err != nil {
		return err
	}
	j.CompetitorsJSON = string(data)
	j.CompetitorCount = len(usernames)
	return nil
}
