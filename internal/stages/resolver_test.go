package stages_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scanvault/orchestrator/internal/models"
	"github.com/scanvault/orchestrator/internal/stages"
)

func TestResolve_NothingDone_CoreOnly(t *testing.T) {
	got := stages.Resolve(models.StatusSnapshot{}, false)

	assert.Equal(t, []models.StageName{
		models.StageCreateFolder,
		models.StageDownloadPDF,
		models.StageCreatePNGs,
		models.StageAnalyzeImages,
	}, got)
}

func TestResolve_EverythingDone_ExtendedEnabled(t *testing.T) {
	snap := models.StatusSnapshot{
		HasFolder:        true,
		HasPDF:           true,
		HasPNGs:          true,
		HasAnalysis:      true,
		HasArweave:       true,
		HasLatestSummary: true,
		IsIndexed:        true,
		DBID:             "db-42",
	}

	got := stages.Resolve(snap, true)
	assert.Empty(t, got)
}

func TestResolve_ExtendedStagesGated(t *testing.T) {
	snap := models.StatusSnapshot{
		HasFolder:   true,
		HasPDF:      true,
		HasPNGs:     true,
		HasAnalysis: true,
	}

	// Core complete, extended mode off: nothing to do.
	assert.Empty(t, stages.Resolve(snap, false))

	// Extended mode on: the three extended stages remain, in order.
	assert.Equal(t, []models.StageName{
		models.StagePublishArweave,
		models.StageUpdateSummary,
		models.StageIndexDatabase,
	}, stages.Resolve(snap, true))
}

func TestResolve_SkipsSatisfiedKeepsOrder(t *testing.T) {
	snap := models.StatusSnapshot{
		HasFolder: true,
		HasPNGs:   true,
	}

	got := stages.Resolve(snap, false)
	assert.Equal(t, []models.StageName{
		models.StageDownloadPDF,
		models.StageAnalyzeImages,
	}, got)
}

func TestResolve_CanonicalOrderAcrossModes(t *testing.T) {
	tests := []struct {
		name     string
		snap     models.StatusSnapshot
		extended bool
		want     []models.StageName
	}{
		{
			name:     "all missing extended",
			snap:     models.StatusSnapshot{},
			extended: true,
			want: []models.StageName{
				models.StageCreateFolder,
				models.StageDownloadPDF,
				models.StageCreatePNGs,
				models.StageAnalyzeImages,
				models.StagePublishArweave,
				models.StageUpdateSummary,
				models.StageIndexDatabase,
			},
		},
		{
			name: "only indexing missing",
			snap: models.StatusSnapshot{
				HasFolder: true, HasPDF: true, HasPNGs: true, HasAnalysis: true,
				HasArweave: true, HasLatestSummary: true,
			},
			extended: true,
			want:     []models.StageName{models.StageIndexDatabase},
		},
		{
			name: "extended missing but mode off",
			snap: models.StatusSnapshot{
				HasFolder: true, HasPDF: true, HasPNGs: true, HasAnalysis: true,
			},
			extended: false,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stages.Resolve(tt.snap, tt.extended))
		})
	}
}
