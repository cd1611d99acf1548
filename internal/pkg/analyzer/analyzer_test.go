package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeDocument() Document {
	return Document{
		Scripts:            `[{"title":"Hook"}]`,
		OverallStrategy:    `{"summary":"post daily"}`,
		UserResearch:       `{"audience":"creators"}`,
		CompetitorResearch: `{"competitors":[]}`,
		NicheResearch:      `{"niche":"tech"}`,
		TwitterLatest:      `{"tweets":[]}`,
		TwitterTop:         `{"tweets":[]}`,
	}
}

func TestDocumentValidate(t *testing.T) {
	doc := completeDocument()
	assert.NoError(t, doc.Validate())

	tests := []struct {
		name   string
		mutate func(*Document)
		valid  bool
	}{
		{"missing scripts", func(d *Document) { d.Scripts = "" }, false},
		{"missing overall strategy", func(d *Document) { d.OverallStrategy = "" }, false},
		{"missing user research", func(d *Document) { d.UserResearch = "" }, false},
		{"missing competitor research", func(d *Document) { d.CompetitorResearch = "" }, false},
		{"missing niche research", func(d *Document) { d.NicheResearch = "" }, false},
		{"only latest tweets", func(d *Document) { d.TwitterTop = "" }, true},
		{"only top tweets", func(d *Document) { d.TwitterLatest = "" }, true},
		{"no twitter data at all", func(d *Document) { d.TwitterLatest = ""; d.TwitterTop = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := completeDocument()
			tt.mutate(&d)
			err := d.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIncompleteDocument)
			}
		})
	}
}

func TestDocumentToResearch(t *testing.T) {
	doc := completeDocument()
	research := doc.ToResearch(7)

	assert.Equal(t, uint(7), research.SocialAccountID)
	require.NotNil(t, research.ScriptSuggestion)
	assert.Equal(t, doc.Scripts, research.ScriptSuggestion.Scripts)
	require.NotNil(t, research.OverallStrategy)
	assert.Equal(t, doc.OverallStrategy, research.OverallStrategy.Data)
	require.NotNil(t, research.UserResearch)
	assert.Equal(t, doc.UserResearch, research.UserResearch.Data)
	require.NotNil(t, research.CompetitorResearch)
	assert.Equal(t, doc.CompetitorResearch, research.CompetitorResearch.Data)
	require.NotNil(t, research.NicheResearch)
	assert.Equal(t, doc.NicheResearch, research.NicheResearch.Data)
	require.NotNil(t, research.TwitterResearch)
	assert.Equal(t, doc.TwitterLatest, research.TwitterResearch.LatestData)
	assert.Equal(t, doc.TwitterTop, research.TwitterResearch.TopData)
}
