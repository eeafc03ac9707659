package view

import "time"

type GdprRequestType string

const (
	GdprTypeDsar          GdprRequestType = "dsar"
	GdprTypeErasure       GdprRequestType = "erasure"
	GdprTypeRectification GdprRequestType = "rectification"
	GdprTypeRestriction   GdprRequestType = "restriction"
	GdprTypePortability   GdprRequestType = "portability"
)

type GdprStatus string

const (
	GdprStatusPending    GdprStatus = "pending"
	GdprStatusInReview   GdprStatus = "in_review"
	GdprStatusProcessing GdprStatus = "processing"
	GdprStatusCompleted  GdprStatus = "completed"
	GdprStatusRejected   GdprStatus = "rejected"
)

func (s GdprStatus) Terminal() bool {
	return s == GdprStatusCompleted || s == GdprStatusRejected
}

type GdprAction string

const (
	GdprActionDiscover  GdprAction = "discover"
	GdprActionExport    GdprAction = "export"
	GdprActionAnonymize GdprAction = "anonymize"
	GdprActionComplete  GdprAction = "complete"
	GdprActionReject    GdprAction = "reject"
)

type CreateGdprRequestReq struct {
	RequestType  GdprRequestType `json:"requestType" validate:"required,oneof=dsar erasure rectification restriction portability"`
	SubjectEmail string          `json:"subjectEmail" validate:"required,email"`
	SubjectName  string          `json:"subjectName"`
	SubjectPhone string          `json:"subjectPhone"`
	DueDate      *time.Time      `json:"dueDate"`
	Notes        string          `json:"notes"`
}

type ProcessGdprRequestReq struct {
	Action GdprAction `json:"action" validate:"required"`
	Notes  string     `json:"notes"`
}

type GdprRequest struct {
	Id               string          `json:"id"`
	RequestNumber    string          `json:"requestNumber"`
	RequestType      GdprRequestType `json:"requestType"`
	SubjectEmail     string          `json:"subjectEmail"`
	SubjectName      string          `json:"subjectName,omitempty"`
	SubjectPhone     string          `json:"subjectPhone,omitempty"`
	Status           GdprStatus      `json:"status"`
	DueDate          time.Time       `json:"dueDate"`
	DataFound        map[string]int  `json:"dataFound,omitempty"`
	AnonymizedCounts map[string]int  `json:"anonymizedCounts,omitempty"`
	ExportFileName   string          `json:"exportFileName,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	ComplianceNotes  string          `json:"complianceNotes,omitempty"`
	CreatedBy        string          `json:"createdBy"`
	CreatedAt        time.Time       `json:"createdAt"`
	ProcessedBy      string          `json:"processedBy,omitempty"`
	ProcessedAt      *time.Time      `json:"processedAt,omitempty"`
}

type GdprRequestsFilter struct {
	Status string
	Limit  int
	Offset int
}

type GdprRequests struct {
	Requests []GdprRequest `json:"requests"`
	Total    int           `json:"total"`
}

// SubjectData is the content of a portability bundle: table -> rows.
type SubjectData map[string][]Record
