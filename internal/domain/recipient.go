// Package domain contains the core data types for the stipend roster tracker.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler).
package domain

import "strings"

// System column names. Every roster carries exactly these columns, in this
// order; anything missing is backfilled with empty strings before use.
const (
	ColID                = "ID序號"
	ColSequenceNumber    = "編號"
	ColNameLocal         = "姓名(中文)"
	ColNameLatin         = "姓名(英文)"
	ColPhone             = "電話"
	ColInternshipDays    = "實習日數"
	ColReflectionMeeting = "反思會"
	ColReflectionForm    = "反思表"
	ColGuardian          = "家長/監護人"
	ColCollected         = "Collected"
	ColDocGeneratedDate  = "DocGeneratedDate"
	ColCollectedDate     = "CollectedDate"
	ColResponsibleStaff  = "ResponsibleStaff"
)

// Columns is the canonical column order of a roster worksheet.
var Columns = []string{
	ColID, ColSequenceNumber, ColNameLocal, ColNameLatin, ColPhone,
	ColInternshipDays, ColReflectionMeeting, ColReflectionForm, ColGuardian,
	ColCollected, ColDocGeneratedDate, ColCollectedDate, ColResponsibleStaff,
}

// ImportColumnCount is the number of leading columns an uploaded file must
// provide. They map positionally onto Columns[:ImportColumnCount].
const ImportColumnCount = 9

// yes is the only truthy flag value.
const yes = "Y"

// ColumnIndex returns the 1-based position of col in Columns, or 0 if col is
// not a system column.
func ColumnIndex(col string) int {
	for i, c := range Columns {
		if c == col {
			return i + 1
		}
	}
	return 0
}

// Recipient is one participant's record within one roster.
// All fields are trimmed text; absent values are empty strings, never nil.
type Recipient struct {
	ID                string `json:"id"`
	SequenceNumber    string `json:"sequence_number"`
	NameLocal         string `json:"name_local"`
	NameLatin         string `json:"name_latin"`
	Phone             string `json:"phone"`
	InternshipDays    string `json:"internship_days"`
	ReflectionMeeting string `json:"reflection_meeting"`
	ReflectionForm    string `json:"reflection_form"`
	Guardian          string `json:"guardian"`
	Collected         string `json:"collected"`
	DocGeneratedDate  string `json:"doc_generated_date"`
	CollectedDate     string `json:"collected_date"`
	ResponsibleStaff  string `json:"responsible_staff"`
}

// fields returns pointers to every field in Columns order.
func (r *Recipient) fields() []*string {
	return []*string{
		&r.ID, &r.SequenceNumber, &r.NameLocal, &r.NameLatin, &r.Phone,
		&r.InternshipDays, &r.ReflectionMeeting, &r.ReflectionForm, &r.Guardian,
		&r.Collected, &r.DocGeneratedDate, &r.CollectedDate, &r.ResponsibleStaff,
	}
}

// Record returns the row's cells in Columns order.
func (r Recipient) Record() []string {
	out := make([]string, 0, len(Columns))
	for _, f := range r.fields() {
		out = append(out, *f)
	}
	return out
}

// Get returns the value of the named system column.
func (r Recipient) Get(col string) string {
	if i := ColumnIndex(col); i > 0 {
		return *r.fields()[i-1]
	}
	return ""
}

// Set assigns the named system column. Unknown columns are ignored.
// The ID column is stored in canonical form.
func (r *Recipient) Set(col, value string) {
	i := ColumnIndex(col)
	if i == 0 {
		return
	}
	value = strings.TrimSpace(value)
	if col == ColID {
		value = NormalizeID(value)
	}
	*r.fields()[i-1] = value
}

// RecipientFromRecord builds a Recipient from one data row, using header to
// locate each system column. Columns absent from header, and cells missing
// from a short record, become empty strings.
func RecipientFromRecord(header, record []string) Recipient {
	var r Recipient
	for i, name := range header {
		if i >= len(record) {
			break
		}
		r.Set(strings.TrimSpace(name), record[i])
	}
	return r
}

// Table is a worksheet read in bulk: a header row plus text data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Roster is a named, cleaned snapshot of one worksheet.
type Roster struct {
	Name       string
	Recipients []Recipient
}

// Find returns the recipient whose canonical id equals NormalizeID(id).
func (r Roster) Find(id string) (Recipient, bool) {
	key := NormalizeID(id)
	if key == "" {
		return Recipient{}, false
	}
	for _, rec := range r.Recipients {
		if NormalizeID(rec.ID) == key {
			return rec, true
		}
	}
	return Recipient{}, false
}
