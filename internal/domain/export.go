package domain

// Injected export artifact columns.
const (
	ColStaffName = "StaffName"
	ColTodayDate = "TodayDate"
)

// ExportFileName is the default name of the mail-merge artifact.
const ExportFileName = "MailMerge_Source.xlsx"

// ExportRow is a single row in the mail-merge export artifact: the
// recipient's data as it was before the Export transition, plus the acting
// staff member and the export date.
type ExportRow struct {
	Recipient Recipient
	StaffName string
	TodayDate string // "2006-01-02" formatted date
}

// ExportHeader returns the artifact's header row: every system column
// followed by StaffName and TodayDate.
func ExportHeader() []string {
	out := make([]string, 0, len(Columns)+2)
	out = append(out, Columns...)
	return append(out, ColStaffName, ColTodayDate)
}

// Record encodes the row as a flat string slice matching ExportHeader.
func (e ExportRow) Record() []string {
	return append(e.Recipient.Record(), e.StaffName, e.TodayDate)
}
