package models

// StatusSnapshot is a document's completion snapshot as reported by the
// remote status query. One flag per pipeline stage.
type StatusSnapshot struct {
	HasFolder        bool   `json:"hasFolder"`
	HasPDF           bool   `json:"hasPdf"`
	HasPNGs          bool   `json:"hasPngs"`
	HasAnalysis      bool   `json:"hasAnalysis"`
	HasArweave       bool   `json:"hasArweave"`
	HasLatestSummary bool   `json:"hasLatestSummary"`
	IsIndexed        bool   `json:"isIndexed"`
	DBID             string `json:"dbId,omitempty"`
}
