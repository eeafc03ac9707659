package view

import "time"

type DuplicateStatus string

const (
	DuplicateStatusPending   DuplicateStatus = "pending"
	DuplicateStatusMerged    DuplicateStatus = "merged"
	DuplicateStatusDismissed DuplicateStatus = "dismissed"
)

type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "High"
	ConfidenceMedium ConfidenceBand = "Medium"
	ConfidenceLow    ConfidenceBand = "Low"
)

func BandOf(confidence float64) ConfidenceBand {
	switch {
	case confidence >= 0.9:
		return ConfidenceHigh
	case confidence >= 0.7:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

type DuplicateRecord struct {
	Id              string          `json:"id"`
	EntityType      string          `json:"entityType"`
	RecordId1       string          `json:"recordId1"`
	RecordId2       string          `json:"recordId2"`
	ConfidenceScore float64         `json:"confidenceScore"`
	Band            ConfidenceBand  `json:"band"`
	MatchFields     []string        `json:"matchFields"`
	Status          DuplicateStatus `json:"status"`
	MergedIntoId    string          `json:"mergedIntoId,omitempty"`
	DismissedReason string          `json:"dismissedReason,omitempty"`
	ReviewedBy      string          `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type DuplicatesFilter struct {
	EntityType    string
	Status        DuplicateStatus
	MinConfidence *float64
	Limit         int
	Offset        int
}

type Duplicates struct {
	Duplicates []DuplicateRecord `json:"duplicates"`
	Total      int               `json:"total"`
}

type DuplicateRecords struct {
	Duplicate    DuplicateRecord   `json:"duplicate"`
	Records      []Record          `json:"records"`
	EntityConfig EntityTypeDetails `json:"entityConfig"`
}

type DetectDuplicatesReq struct {
	EntityType string `json:"entityType" validate:"required"`
}

type MergeDuplicatesReq struct {
	KeepRecordId   string                 `json:"keepRecordId" validate:"required"`
	MergeRecordId  string                 `json:"mergeRecordId" validate:"required"`
	FieldOverrides map[string]interface{} `json:"fieldOverrides"`
}

type DismissDuplicateReq struct {
	Reason string `json:"reason"`
}

// DuplicateCandidate is a scored pair produced by a detection run.
type DuplicateCandidate struct {
	RecordId1       string
	RecordId2       string
	ConfidenceScore float64
	MatchFields     []string
}

type DetectionResult struct {
	Scanned       int `json:"scanned"`
	Blocks        int `json:"blocks"`
	SkippedBlocks int `json:"skippedBlocks"`
	PairsCompared int `json:"pairsCompared"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Skipped       int `json:"skipped"`
}
