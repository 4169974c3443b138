package models

import "time"

// Document type identifiers. These are part of the persisted compatibility
// surface: existing data sets use the short "pos"/"com" markers.
const (
	TypePosition = "pos"
	TypeCompany  = "com"
)

// Default starting points for allocated identifiers. Position and company ids
// live in disjoint ranges so an id never collides across document types.
const (
	FirstPositionID = 1001
	FirstCompanyID  = 2001
	FirstFAQID      = 50001
)

// FAQ is a question/response pair scoped to a position or a company. Response
// is nil while the question is still awaiting a human answer.
type FAQ struct {
	ID              int64   `json:"id"`
	PositionID      int64   `json:"positionId,omitempty"`
	CompanyID       int64   `json:"companyId,omitempty"`
	GeneratedByUser bool    `json:"generatedByUser"`
	AnsweredByHR    bool    `json:"answeredByHR"`
	TimesAsked      int     `json:"timesAsked"`
	Question        string  `json:"question"`
	Response        *string `json:"response"`
	Version         int     `json:"version"`
	Timestamp       string  `json:"timestamp"`
}

// InfoItem is a free-form subject/answer pair attached to a position or company.
type InfoItem struct {
	ID         int64  `json:"id"`
	PositionID int64  `json:"positionId,omitempty"`
	CompanyID  int64  `json:"companyId,omitempty"`
	Subject    string `json:"subject"`
	Answer     string `json:"answer"`
}

type Position struct {
	ID                  int64  `json:"id"`
	CompanyID           int64  `json:"companyId,omitempty"`
	Version             int64  `json:"version"`
	Title               string `json:"title,omitempty"`
	PositionDescription string `json:"positionDescription"`
}

// PositionDocument is one stored snapshot of a position together with its
// embedded FAQ and info lists.
type PositionDocument struct {
	Position     Position   `json:"position"`
	PositionFAQs []FAQ      `json:"positionFAQs"`
	PositionInfo []InfoItem `json:"positionInfo"`
}

type Company struct {
	ID      int64  `json:"id"`
	Version int64  `json:"version"`
	Name    string `json:"name,omitempty"`
}

type CompanyDocument struct {
	Company     Company    `json:"company"`
	CompanyFAQs []FAQ      `json:"companyFAQs"`
	CompanyInfo []InfoItem `json:"companyInfo"`
}

// EmptyCompanyDocument substitutes for a missing company so the workflow can
// always assemble a full context.
func EmptyCompanyDocument() *CompanyDocument {
	return &CompanyDocument{CompanyFAQs: []FAQ{}, CompanyInfo: []InfoItem{}}
}

// NextFAQID returns max(existing ids)+1, or FirstFAQID for an empty list.
func NextFAQID(faqs []FAQ) int64 {
	next := int64(FirstFAQID)
	for _, f := range faqs {
		if f.ID >= next {
			next = f.ID + 1
		}
	}
	return next
}

// Timestamp returns the canonical textual form used for FAQ timestamps.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
