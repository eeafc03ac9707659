package service

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

type EntitySchemaRegistry interface {
	Describe(entityType string) ([]view.EntityFieldDescriptor, error)
	GetSchema(entityType string) (*view.EntitySchema, error)
	List() []view.EntityTypeInfo
	ListImportable() []view.EntityTypeDetails
	ListExportable() []view.EntityTypeDetails
	All() []view.EntitySchema
}

var identifierRegexp = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// NewEntitySchemaRegistry checks that every table and column is a plain identifier,
// since they end up in dynamically built queries.
func NewEntitySchemaRegistry(schemas ...view.EntitySchema) (EntitySchemaRegistry, error) {
	r := &entitySchemaRegistryImpl{schemas: make(map[string]view.EntitySchema, len(schemas))}
	for _, s := range schemas {
		if _, exists := r.schemas[s.Name]; exists {
			return nil, fmt.Errorf("entity type %s is registered twice", s.Name)
		}
		if err := validateSchema(s); err != nil {
			return nil, fmt.Errorf("entity type %s is invalid: %w", s.Name, err)
		}
		r.schemas[s.Name] = s
		r.names = append(r.names, s.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

type entitySchemaRegistryImpl struct {
	schemas map[string]view.EntitySchema
	names   []string
}

func validateSchema(s view.EntitySchema) error {
	if !identifierRegexp.MatchString(s.Table) {
		return fmt.Errorf("table name '%s' is not allowed", s.Table)
	}
	names := map[string]bool{}
	for _, f := range s.Fields {
		if !identifierRegexp.MatchString(f.DbColumn) {
			return fmt.Errorf("column '%s' is not allowed", f.DbColumn)
		}
		if names[f.Name] {
			return fmt.Errorf("field '%s' is declared twice", f.Name)
		}
		names[f.Name] = true
	}
	if s.UniqueField != "" && !names[s.UniqueField] {
		return fmt.Errorf("unique field '%s' is not declared", s.UniqueField)
	}
	for _, d := range s.DuplicateFields {
		if !names[d.Field] {
			return fmt.Errorf("duplicate field '%s' is not declared", d.Field)
		}
		if d.Weight <= 0 || d.Weight >= 1 {
			return fmt.Errorf("weight of duplicate field '%s' must be in (0,1)", d.Field)
		}
	}
	for _, rel := range s.Relations {
		if !identifierRegexp.MatchString(rel.Table) || !identifierRegexp.MatchString(rel.Column) {
			return fmt.Errorf("relation %s.%s is not allowed", rel.Table, rel.Column)
		}
	}
	for _, c := range append(append([]string{}, s.GdprSubjectColumns...), s.PiiColumns...) {
		if !identifierRegexp.MatchString(c) {
			return fmt.Errorf("column '%s' is not allowed", c)
		}
	}
	return nil
}

func (r entitySchemaRegistryImpl) Describe(entityType string) ([]view.EntityFieldDescriptor, error) {
	s, err := r.GetSchema(entityType)
	if err != nil {
		return nil, err
	}
	return s.Fields, nil
}

func (r entitySchemaRegistryImpl) GetSchema(entityType string) (*view.EntitySchema, error) {
	s, exists := r.schemas[entityType]
	if !exists {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.UnknownEntityType,
			Message: exception.UnknownEntityTypeMsg,
			Params:  map[string]interface{}{"entityType": entityType},
		}
	}
	return &s, nil
}

func (r entitySchemaRegistryImpl) List() []view.EntityTypeInfo {
	result := make([]view.EntityTypeInfo, 0, len(r.names))
	for _, name := range r.names {
		s := r.schemas[name]
		result = append(result, view.EntityTypeInfo{Name: s.Name, DisplayName: s.DisplayName})
	}
	return result
}

func (r entitySchemaRegistryImpl) ListImportable() []view.EntityTypeDetails {
	result := make([]view.EntityTypeDetails, 0)
	for _, name := range r.names {
		s := r.schemas[name]
		if s.Importable {
			result = append(result, view.EntityTypeDetails{Name: s.Name, DisplayName: s.DisplayName, Fields: s.ImportableFields()})
		}
	}
	return result
}

func (r entitySchemaRegistryImpl) ListExportable() []view.EntityTypeDetails {
	result := make([]view.EntityTypeDetails, 0)
	for _, name := range r.names {
		s := r.schemas[name]
		if s.Exportable {
			result = append(result, view.EntityTypeDetails{Name: s.Name, DisplayName: s.DisplayName, Fields: s.Fields})
		}
	}
	return result
}

func (r entitySchemaRegistryImpl) All() []view.EntitySchema {
	result := make([]view.EntitySchema, 0, len(r.names))
	for _, name := range r.names {
		result = append(result, r.schemas[name])
	}
	return result
}

func field(name, displayName, column string, fieldType view.FieldType, required bool) view.EntityFieldDescriptor {
	return view.EntityFieldDescriptor{
		Name:        name,
		DisplayName: displayName,
		DbColumn:    column,
		Type:        fieldType,
		Required:    required,
		Importable:  true,
	}
}

func enumField(name, displayName, column string, required bool, values ...string) view.EntityFieldDescriptor {
	f := field(name, displayName, column, view.FieldTypeEnum, required)
	f.EnumValues = values
	return f
}

func readOnly(f view.EntityFieldDescriptor) view.EntityFieldDescriptor {
	f.Importable = false
	return f
}

// DefaultEntitySchemas describes the CRM tables the data console works with.
func DefaultEntitySchemas() []view.EntitySchema {
	return []view.EntitySchema{
		{
			Name:        "account",
			DisplayName: "Accounts",
			Table:       "accounts",
			UniqueField: "name",
			Importable:  true,
			Exportable:  true,
			Fields: []view.EntityFieldDescriptor{
				readOnly(field("id", "ID", "id", view.FieldTypeString, false)),
				field("name", "Account Name", "name", view.FieldTypeString, true),
				field("website", "Website", "website", view.FieldTypeUrl, false),
				field("industry", "Industry", "industry", view.FieldTypeString, false),
				field("phone", "Phone", "phone", view.FieldTypePhone, false),
				field("email", "Email", "email", view.FieldTypeEmail, false),
				field("city", "City", "city", view.FieldTypeString, false),
				field("country", "Country", "country", view.FieldTypeString, false),
				field("annualRevenue", "Annual Revenue", "annual_revenue", view.FieldTypeNumber, false),
				field("employeeCount", "Employee Count", "employee_count", view.FieldTypeInteger, false),
				enumField("status", "Status", "status", false, "prospect", "active", "inactive", "churned"),
				readOnly(field("createdAt", "Created At", "created_at", view.FieldTypeDate, false)),
			},
			Relations: []view.Relation{
				{Table: "contacts", Column: "account_id"},
				{Table: "jobs", Column: "account_id"},
				{Table: "deals", Column: "account_id"},
				{Table: "placements", Column: "account_id"},
			},
			DuplicateFields: []view.DuplicateField{
				{Field: "name", Kind: view.CompareName, Weight: 0.6},
				{Field: "website", Kind: view.CompareDomain, Weight: 0.8},
				{Field: "phone", Kind: view.ComparePhone, Weight: 0.7},
				{Field: "city", Kind: view.CompareText, Weight: 0.2},
			},
		},
		{
			Name:        "contact",
			DisplayName: "Contacts",
			Table:       "contacts",
			UniqueField: "email",
			Importable:  true,
			Exportable:  true,
			Fields: []view.EntityFieldDescriptor{
				readOnly(field("id", "ID", "id", view.FieldTypeString, false)),
				field("firstName", "First Name", "first_name", view.FieldTypeString, true),
				field("lastName", "Last Name", "last_name", view.FieldTypeString, true),
				field("email", "Email", "email", view.FieldTypeEmail, true),
				field("phone", "Phone", "phone", view.FieldTypePhone, false),
				field("title", "Title", "title", view.FieldTypeString, false),
				field("accountId", "Account ID", "account_id", view.FieldTypeString, false),
				field("linkedinUrl", "LinkedIn URL", "linkedin_url", view.FieldTypeUrl, false),
				field("city", "City", "city", view.FieldTypeString, false),
				field("isPrimary", "Primary Contact", "is_primary", view.FieldTypeBoolean, false),
				readOnly(field("createdAt", "Created At", "created_at", view.FieldTypeDate, false)),
			},
			Relations: []view.Relation{
				{Table: "deals", Column: "contact_id"},
			},
			DuplicateFields: []view.DuplicateField{
				{Field: "email", Kind: view.CompareEmail, Weight: 0.9},
				{Field: "phone", Kind: view.ComparePhone, Weight: 0.8},
				{Field: "linkedinUrl", Kind: view.CompareUrl, Weight: 0.85},
				{Field: "firstName", Kind: view.CompareName, Weight: 0.3},
				{Field: "lastName", Kind: view.CompareName, Weight: 0.3},
				{Field: "city", Kind: view.CompareText, Weight: 0.2},
			},
			GdprSubjectColumns: []string{"email"},
			PiiColumns:         []string{"first_name", "last_name", "email", "phone", "linkedin_url", "city"},
		},
		{
			Name:        "candidate",
			DisplayName: "Candidates",
			Table:       "candidates",
			UniqueField: "email",
			Importable:  true,
			Exportable:  true,
			Fields: []view.EntityFieldDescriptor{
				readOnly(field("id", "ID", "id", view.FieldTypeString, false)),
				field("fullName", "Full Name", "full_name", view.FieldTypeString, true),
				field("email", "Email Address", "email", view.FieldTypeEmail, true),
				field("phone", "Phone", "phone", view.FieldTypePhone, false),
				field("linkedinUrl", "LinkedIn URL", "linkedin_url", view.FieldTypeUrl, false),
				field("currentTitle", "Current Title", "current_title", view.FieldTypeString, false),
				field("currentCompany", "Current Company", "current_company", view.FieldTypeString, false),
				field("location", "Location", "location", view.FieldTypeString, false),
				field("yearsExperience", "Years of Experience", "years_experience", view.FieldTypeInteger, false),
				field("desiredSalary", "Desired Salary", "desired_salary", view.FieldTypeNumber, false),
				field("availableFrom", "Available From", "available_from", view.FieldTypeDate, false),
				field("willingToRelocate", "Willing to Relocate", "willing_to_relocate", view.FieldTypeBoolean, false),
				enumField("status", "Status", "status", false, "active", "passive", "placed", "do_not_contact"),
				field("source", "Source", "source", view.FieldTypeString, false),
				readOnly(field("createdAt", "Created At", "created_at", view.FieldTypeDate, false)),
			},
			Relations: []view.Relation{
				{Table: "submissions", Column: "candidate_id"},
				{Table: "interviews", Column: "candidate_id"},
				{Table: "placements", Column: "candidate_id"},
			},
			DuplicateFields: []view.DuplicateField{
				{Field: "email", Kind: view.CompareEmail, Weight: 0.9},
				{Field: "phone", Kind: view.ComparePhone, Weight: 0.8},
				{Field: "linkedinUrl", Kind: view.CompareUrl, Weight: 0.85},
				{Field: "fullName", Kind: view.CompareName, Weight: 0.5},
				{Field: "location", Kind: view.CompareText, Weight: 0.2},
			},
			GdprSubjectColumns: []string{"email"},
			PiiColumns:         []string{"full_name", "email", "phone", "linkedin_url", "location"},
		},
		{
			Name:        "job",
			DisplayName: "Jobs",
			Table:       "jobs",
			Importable:  true,
			Exportable:  true,
			Fields: []view.EntityFieldDescriptor{
				readOnly(field("id", "ID", "id", view.FieldTypeString, false)),
				field("title", "Job Title", "title", view.FieldTypeString, true),
				field("accountId", "Account ID", "account_id", view.FieldTypeString, false),
				field("description", "Description", "description", view.FieldTypeString, false),
				field("location", "Location", "location", view.FieldTypeString, false),
				enumField("employmentType", "Employment Type", "employment_type", false, "full_time", "part_time", "contract", "contract_to_hire"),
				field("salaryMin", "Salary Min", "salary_min", view.FieldTypeNumber, false),
				field("salaryMax", "Salary Max", "salary_max", view.FieldTypeNumber, false),
				field("openings", "Openings", "openings", view.FieldTypeInteger, false),
				enumField("status", "Status", "status", false, "draft", "open", "on_hold", "filled", "closed"),
				field("startDate", "Start Date", "start_date", view.FieldTypeDate, false),
				readOnly(field("createdAt", "Created At", "created_at", view.FieldTypeDate, false)),
			},
			Relations: []view.Relation{
				{Table: "submissions", Column: "job_id"},
				{Table: "interviews", Column: "job_id"},
				{Table: "placements", Column: "job_id"},
			},
			DuplicateFields: []view.DuplicateField{
				{Field: "title", Kind: view.CompareName, Weight: 0.5},
				{Field: "accountId", Kind: view.CompareText, Weight: 0.5},
				{Field: "location", Kind: view.CompareText, Weight: 0.2},
			},
		},
		{
			Name:        "submission",
			DisplayName: "Submissions",
			Table:       "submissions",
			Importable:  true,
			Exportable:  true,
			Fields: []view.EntityFieldDescriptor{
				readOnly(field("id", "ID", "id", view.FieldTypeString, false)),
				field("candidateId", "Candidate ID", "candidate_id", view.FieldTypeString, true),
				field("jobId", "Job ID", "job_id", view.FieldTypeString, true),
				enumField("status", "Status", "status", false, "submitted", "client_review", "interview", "offer", "placed", "rejected", "withdrawn"),
				field("submittedAt", "Submitted At", "submitted_at", view.FieldTypeDate, false),
				field("billRate", "Bill Rate", "bill_rate", view.FieldTypeNumber, false),
				field("payRate", "Pay Rate", "pay_rate", view.FieldTypeNumber, false),
				field("notes", "Notes", "notes", view.FieldTypeString, false),
				readOnly(field("createdAt", "Created At", "created_at", view.FieldTypeDate, false)),
			},
			Relations: []view.Relation{
				{Table: "interviews", Column: "submission_id"},
			},
			DuplicateFields: []view.DuplicateField{
				{Field: "candidateId", Kind: view.CompareText, Weight: 0.5},
				{Field: "jobId", Kind: view.CompareText, Weight: 0.5},
			},
		},
		{
			Name:        "interview",
			DisplayName: "Interviews",
			Table:       "interviews",
			Importable:  true,
			Exportable:  true,
			Fields: []view.EntityFieldDescriptor{
				readOnly(field("id", "ID", "id", view.FieldTypeString, false)),
				field("submissionId", "Submission ID", "submission_id", view.FieldTypeString, false),
				field("candidateId", "Candidate ID", "candidate_id", view.FieldTypeString, true),
				field("jobId", "Job ID", "job_id", view.FieldTypeString, true),
				field("scheduledAt", "Scheduled At", "scheduled_at", view.FieldTypeDate, true),
				enumField("interviewType", "Interview Type", "interview_type", false, "phone", "video", "onsite", "technical"),
				field("interviewer", "Interviewer", "interviewer", view.FieldTypeString, false),
				enumField("status", "Status", "status", false, "scheduled", "completed", "cancelled", "no_show"),
				field("rating", "Rating", "rating", view.FieldTypeInteger, false),
				field("feedback", "Feedback", "feedback", view.FieldTypeString, false),
				readOnly(field("createdAt", "Created At", "created_at", view.FieldTypeDate, false)),
			},
		},
		{
			Name:        "placement",
			DisplayName: "Placements",
			Table:       "placements",
			Importable:  true,
			Exportable:  true,
			Fields: []view.EntityFieldDescriptor{
				readOnly(field("id", "ID", "id", view.FieldTypeString, false)),
				field("candidateId", "Candidate ID", "candidate_id", view.FieldTypeString, true),
				field("jobId", "Job ID", "job_id", view.FieldTypeString, true),
				field("accountId", "Account ID", "account_id", view.FieldTypeString, false),
				field("startDate", "Start Date", "start_date", view.FieldTypeDate, true),
				field("endDate", "End Date", "end_date", view.FieldTypeDate, false),
				field("billRate", "Bill Rate", "bill_rate", view.FieldTypeNumber, false),
				field("payRate", "Pay Rate", "pay_rate", view.FieldTypeNumber, false),
				enumField("status", "Status", "status", false, "pending", "active", "completed", "terminated"),
				readOnly(field("createdAt", "Created At", "created_at", view.FieldTypeDate, false)),
			},
		},
		{
			Name:        "deal",
			DisplayName: "Deals",
			Table:       "deals",
			Importable:  true,
			Exportable:  true,
			Fields: []view.EntityFieldDescriptor{
				readOnly(field("id", "ID", "id", view.FieldTypeString, false)),
				field("name", "Deal Name", "name", view.FieldTypeString, true),
				field("accountId", "Account ID", "account_id", view.FieldTypeString, false),
				field("contactId", "Contact ID", "contact_id", view.FieldTypeString, false),
				field("value", "Value", "value", view.FieldTypeNumber, false),
				enumField("stage", "Stage", "stage", false, "prospecting", "qualification", "proposal", "negotiation", "closed_won", "closed_lost"),
				field("probability", "Probability", "probability", view.FieldTypeInteger, false),
				field("expectedCloseDate", "Expected Close Date", "expected_close_date", view.FieldTypeDate, false),
				readOnly(field("createdAt", "Created At", "created_at", view.FieldTypeDate, false)),
			},
			DuplicateFields: []view.DuplicateField{
				{Field: "name", Kind: view.CompareName, Weight: 0.5},
				{Field: "accountId", Kind: view.CompareText, Weight: 0.5},
			},
		},
		{
			Name:        "lead",
			DisplayName: "Leads",
			Table:       "leads",
			UniqueField: "email",
			Importable:  true,
			Exportable:  true,
			Fields: []view.EntityFieldDescriptor{
				readOnly(field("id", "ID", "id", view.FieldTypeString, false)),
				field("firstName", "First Name", "first_name", view.FieldTypeString, false),
				field("lastName", "Last Name", "last_name", view.FieldTypeString, false),
				field("email", "Email", "email", view.FieldTypeEmail, true),
				field("phone", "Phone", "phone", view.FieldTypePhone, false),
				field("company", "Company", "company", view.FieldTypeString, false),
				field("title", "Title", "title", view.FieldTypeString, false),
				field("source", "Source", "source", view.FieldTypeString, false),
				enumField("status", "Status", "status", false, "new", "contacted", "qualified", "unqualified", "converted"),
				readOnly(field("createdAt", "Created At", "created_at", view.FieldTypeDate, false)),
			},
			DuplicateFields: []view.DuplicateField{
				{Field: "email", Kind: view.CompareEmail, Weight: 0.9},
				{Field: "phone", Kind: view.ComparePhone, Weight: 0.8},
				{Field: "firstName", Kind: view.CompareName, Weight: 0.3},
				{Field: "lastName", Kind: view.CompareName, Weight: 0.3},
				{Field: "company", Kind: view.CompareName, Weight: 0.4},
			},
			GdprSubjectColumns: []string{"email"},
			PiiColumns:         []string{"first_name", "last_name", "email", "phone"},
		},
	}
}
