package reports

import (
	"time"

	"shopledger/internal/core/apperror"
)

// MaxExportRows caps a single workbook.
const MaxExportRows = 50000

// Period bounds an export by creation date. From is inclusive, To exclusive.
type Period struct {
	From *time.Time
	To   *time.Time
}

func (p Period) Validate() error {
	if p.From != nil && p.To != nil && !p.From.Before(*p.To) {
		return apperror.NewValidation("from must be before to").
			WithDetail("from", p.From.Format(time.DateOnly)).
			WithDetail("to", p.To.Format(time.DateOnly))
	}
	return nil
}

// Workbook is a rendered export.
type Workbook struct {
	Filename    string
	ContentType string
	Content     []byte
}

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
