package models

// WorkItem is one entry in a scan batch: a document id, optionally tagged
// for the repair path instead of normal processing.
type WorkItem struct {
	DocumentID string `json:"documentId"`
	Repair     bool   `json:"repair"`
}
