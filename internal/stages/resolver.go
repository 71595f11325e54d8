// Package stages maps document completion snapshots to the pipeline stages
// still missing for that document.
package stages

import (
	"github.com/scanvault/orchestrator/internal/models"
)

// Resolve returns the stages a document still needs, in canonical pipeline
// order. The four core stages are always considered; the three extended
// stages only when extended mode is enabled. An empty result means the
// document is already satisfied and must not be dispatched.
func Resolve(snap models.StatusSnapshot, extendedEnabled bool) []models.StageName {
	var missing []models.StageName

	for _, stage := range models.CoreStages {
		if !satisfied(snap, stage) {
			missing = append(missing, stage)
		}
	}

	if extendedEnabled {
		for _, stage := range models.ExtendedStages {
			if !satisfied(snap, stage) {
				missing = append(missing, stage)
			}
		}
	}

	return missing
}

func satisfied(snap models.StatusSnapshot, stage models.StageName) bool {
	switch stage {
	case models.StageCreateFolder:
		return snap.HasFolder
	case models.StageDownloadPDF:
		return snap.HasPDF
	case models.StageCreatePNGs:
		return snap.HasPNGs
	case models.StageAnalyzeImages:
		return snap.HasAnalysis
	case models.StagePublishArweave:
		return snap.HasArweave
	case models.StageUpdateSummary:
		return snap.HasLatestSummary
	case models.StageIndexDatabase:
		return snap.IsIndexed
	default:
		return true
	}
}
