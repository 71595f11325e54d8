package models

// StageName is one named unit of remote pipeline work.
type StageName string

const (
	StageCreateFolder   StageName = "createFolder"
	StageDownloadPDF    StageName = "downloadPdf"
	StageCreatePNGs     StageName = "createPngs"
	StageAnalyzeImages  StageName = "analyzeImages"
	StagePublishArweave StageName = "publishArweave"
	StageUpdateSummary  StageName = "updateSummary"
	StageIndexDatabase  StageName = "indexDatabase"
)

// CoreStages are always eligible, in canonical pipeline order.
var CoreStages = []StageName{
	StageCreateFolder,
	StageDownloadPDF,
	StageCreatePNGs,
	StageAnalyzeImages,
}

// ExtendedStages run after the core stages, only when extended mode is on.
var ExtendedStages = []StageName{
	StagePublishArweave,
	StageUpdateSummary,
	StageIndexDatabase,
}

// StageNames converts a stage list to its wire representation.
func StageNames(stages []StageName) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = string(s)
	}
	return out
}
