package repository

import (
	"github.com/stellaboard/stellaboard/app/models"
	"gorm.io/gorm"
)

// researchRepository implements the ResearchRepository interface
type researchRepository struct {
	db *gorm.DB
}

// NewResearchRepository creates a new research repository instance
func NewResearchRepository(db *gorm.DB) ResearchRepository {
	return &researchRepository{db: db}
}

// GetLatest returns the newest research snapshot for the account with all
// six sub-documents preloaded. gorm.ErrRecordNotFound means "no research
// yet", which callers surface as absence, not failure.
func (r *researchRepository) GetLatest(socialAccountID uint) (*models.Research, error) {
	var research models.Research
	err := r.db.
		Preload("ScriptSuggestion").
		Preload("OverallStrategy").
		Preload("UserResearch").
		Preload("CompetitorResearch").
		Preload("NicheResearch").
		Preload("TwitterResearch").
		Where("social_account_id = ?", socialAccountID).
		Order("created_at DESC").
		First(&research).Error
	if err != nil {
		return nil, err
	}
	return &research, nil
}

// ReplaceLatest supersedes the account's current research inside a single
// transaction: prior snapshots and their sub-documents are deleted, then the
// new unit is created whole. A reader never sees a half-built snapshot or a
// mix of old and new sub-documents.
func (r *researchRepository) ReplaceLatest(socialAccountID uint, research *models.Research) error {
	research.SocialAccountID = socialAccountID

	return r.db.Transaction(func(tx *gorm.DB) error {
		var stale []models.Research
		if err := tx.Where("social_account_id = ?", socialAccountID).Find(&stale).Error; err != nil {
			return err
		}

		for i := range stale {
			id := stale[i].ID
			for _, sub := range []interface{}{
				&models.ScriptSuggestion{},
				&models.OverallStrategy{},
				&models.UserResearch{},
				&models.CompetitorResearch{},
				&models.NicheResearch{},
				&models.TwitterResearch{},
			} {
				if err := tx.Where("research_id = ?", id).Delete(sub).Error; err != nil {
					return err
				}
			}
		}
		if len(stale) > 0 {
			if err := tx.Where("social_account_id = ?", socialAccountID).Delete(&models.Research{}).Error; err != nil {
				return err
			}
		}

		// Create parent and sub-documents as one unit via association writes.
		return tx.Create(research).Error
	})
}
