package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileType distinguishes the two monthly upload families.
type FileType string

const (
	FileTypeRentRoll    FileType = "rent_roll"
	FileTypeCompetition FileType = "competition"
)

// ParseFileType maps an API-level file type string onto the enum.
func ParseFileType(s string) (FileType, error) {
	switch s {
	case string(FileTypeRentRoll):
		return FileTypeRentRoll, nil
	case string(FileTypeCompetition):
		return FileTypeCompetition, nil
	default:
		return "", fmt.Errorf("unknown file type: %q", s)
	}
}

// UploadRecord is one normalized row from an uploaded file, keyed by its
// original row index for traceability. Field values arrive as the upload
// pipeline parsed them; the validator never mutates them.
type UploadRecord struct {
	RowIndex int
	Fields   map[string]any
}

// Has reports whether a field is present with a non-empty value.
func (r UploadRecord) Has(key string) bool {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// String returns a field as a trimmed string.
func (r UploadRecord) String(key string) (string, bool) {
	if !r.Has(key) {
		return "", false
	}
	switch v := r.Fields[key].(type) {
	case string:
		return strings.TrimSpace(v), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// Number returns a field as a float64. String values are cleaned of currency
// formatting ($, commas) before parsing, matching how source files format
// rent columns.
func (r UploadRecord) Number(key string) (float64, bool) {
	if !r.Has(key) {
		return 0, false
	}
	switch v := r.Fields[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", "\"", "").Replace(strings.TrimSpace(v))
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// UploadBatch is one consumed upload event: all normalized rows of a single
// monthly file plus its identity.
type UploadBatch struct {
	UploadID   uuid.UUID
	PropertyID string
	FileType   FileType
	DataMonth  string // YYYY-MM
	Rows       []UploadRecord
}

// RowIssue is a per-row diagnostic attached to a validation report.
type RowIssue struct {
	RowIndex int
	Field    string
	Message  string
}

// ValidationReport is the aggregate data-quality verdict for one batch.
// IsValid gates persistence; CompletenessScore measures field presence breadth
// and QualityScore folds completeness together with the rule penalties.
type ValidationReport struct {
	FileType          FileType
	RowCount          int
	IsValid           bool
	Errors            []string
	Warnings          []string
	CompletenessScore float64
	QualityScore      float64
	RowIssues         []RowIssue
}

// Upload processing statuses persisted with the batch metadata.
const (
	UploadStatusValidated = "validated"
	UploadStatusCompleted = "completed"
	UploadStatusRejected  = "rejected"
	UploadStatusFailed    = "failed"
)

// UploadMetadata is the persisted record of one upload attempt, valid or not.
// Rejected batches keep their metadata so operators can see why data for a
// month never appeared.
type UploadMetadata struct {
	UploadID     uuid.UUID
	PropertyID   string
	FileType     FileType
	DataMonth    string
	RowCount     int
	IsValid      bool
	QualityScore float64
	Errors       []string
	Warnings     []string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UploadHistoryFilter narrows the upload history read.
type UploadHistoryFilter struct {
	PropertyID string
	FileType   *FileType
	Limit      int
}
