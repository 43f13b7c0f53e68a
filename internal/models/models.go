// Package models defines the JSON wire types for the safe-route claims API.
package models

// TravelSheetPage is one page of the claims listing endpoint
// (GET /api/claim/claims).
type TravelSheetPage struct {
	Data []TravelSheet `json:"data"`
}

// TravelSheet is a single claim record. Only the UUID is consumed; records
// without one are skipped.
type TravelSheet struct {
	UUID string `json:"uuid"`
}

// SpecialProjectRef is one element of the special_projects lookup response.
// SpecialProjectUUID may be empty when the travel sheet has no attachment.
type SpecialProjectRef struct {
	SpecialProjectUUID string `json:"special_project_uuid"`
}

// DownloadDescriptor is the body of the special_project/download endpoint.
// StoreUUID names the docstore resource that holds the file bytes and
// filename metadata.
type DownloadDescriptor struct {
	StoreUUID string `json:"store_uuid"`
}
