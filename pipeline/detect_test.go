package pipeline

import (
	"testing"
	"time"

	"goc-notion-sync/models"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	edited := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	prior := func(times ...time.Time) []models.PriorRecord {
		out := make([]models.PriorRecord, len(times))
		for i, ts := range times {
			out[i] = models.PriorRecord{ChunkID: models.ChunkID("p1", i+1), LastEditedTime: ts}
		}
		return out
	}

	tests := []struct {
		name  string
		prior []models.PriorRecord
		want  Classification
	}{
		{"no records", nil, PageNew},
		{"all equal", prior(edited, edited, edited), PageUnchanged},
		{"same instant other zone", prior(edited.In(time.FixedZone("KST", 9*60*60))), PageUnchanged},
		{"one second later", prior(edited.Add(-time.Second)), PageChanged},
		{"millisecond precision", prior(edited.Add(time.Millisecond)), PageChanged},
		{"one record differs", prior(edited, edited.Add(-time.Hour)), PageChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(edited, tt.prior))
		})
	}
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "new", PageNew.String())
	assert.Equal(t, "changed", PageChanged.String())
	assert.Equal(t, "unchanged", PageUnchanged.String())
}
