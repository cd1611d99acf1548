// Package analyzer is the client side of the external research engine that
// performs the actual analysis. The engine is a separate service; this
// package only defines the request/response contract and an HTTP client.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/stellaboard/stellaboard/app/models"
)

// Request describes one analysis run for the engine.
type Request struct {
	Username    string   `json:"username"`
	Provider    string   `json:"provider"`
	Competitors []string `json:"competitors,omitempty"`
}

// Document is the full research result: all six sub-documents, produced
// together. Payload fields hold raw JSON as emitted by the engine.
type Document struct {
	Scripts            string `json:"scripts"`
	OverallStrategy    string `json:"overall_strategy"`
	UserResearch       string `json:"user_research"`
	CompetitorResearch string `json:"competitor_research"`
	NicheResearch      string `json:"niche_research"`
	TwitterLatest      string `json:"twitter_latest"`
	TwitterTop         string `json:"twitter_top"`
}

// ErrIncompleteDocument signals a document missing one of the six
// sub-documents. Persisting it would violate the snapshot unit invariant.
var ErrIncompleteDocument = errors.New("analyzer: incomplete research document")

// Validate checks that every sub-document is present.
func (d *Document) Validate() error {
	missing := ""
	switch {
	case d.Scripts == "":
		missing = "scripts"
	case d.OverallStrategy == "":
		missing = "overall_strategy"
	case d.UserResearch == "":
		missing = "user_research"
	case d.CompetitorResearch == "":
		missing = "competitor_research"
	case d.NicheResearch == "":
		missing = "niche_research"
	case d.TwitterLatest == "" && d.TwitterTop == "":
		missing = "twitter_research"
	}
	if missing != "" {
		return fmt.Errorf("%w: missing %s", ErrIncompleteDocument, missing)
	}
	return nil
}

// ToResearch builds the persistable snapshot with all sub-documents attached.
func (d *Document) ToResearch(socialAccountID uint) *models.Research {
	return &models.Research{
		SocialAccountID:    socialAccountID,
		ScriptSuggestion:   &models.ScriptSuggestion{Scripts: d.Scripts},
		OverallStrategy:    &models.OverallStrategy{Data: d.OverallStrategy},
		UserResearch:       &models.UserResearch{Data: d.UserResearch},
		CompetitorResearch: &models.CompetitorResearch{Data: d.CompetitorResearch},
		NicheResearch:      &models.NicheResearch{Data: d.NicheResearch},
		TwitterResearch: &models.TwitterResearch{
			LatestData: d.TwitterLatest,
			TopData:    d.TwitterTop,
		},
	}
}

// Analyzer runs one analysis against the external research engine.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Document, error)
}
