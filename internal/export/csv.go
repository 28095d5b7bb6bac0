package export

import (
	"strings"

	"github.com/dtroode/leads-server/internal/model"
)

// baseColumns precede the tracking columns in every export.
var baseColumns = []string{
	"id",
	"name",
	"email",
	"phone",
	"role",
	"birthDate",
	"message",
	"createdAt",
	"updatedAt",
}

// Header returns the export column names in order.
func Header() []string {
	header := make([]string, 0, len(baseColumns)+len(model.TrackingKeys))
	header = append(header, baseColumns...)
	return append(header, model.TrackingKeys...)
}

// ToCSV renders leads as CSV. Every line, the header included, ends in CRLF.
func ToCSV(leads []model.Lead) string {
	var b strings.Builder

	writeRow(&b, Header())
	for _, lead := range leads {
		writeRow(&b, row(lead))
	}

	return b.String()
}

func row(lead model.Lead) []string {
	cells := []string{
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Role,
		lead.BirthDate,
		lead.Message,
		lead.CreatedAt,
		lead.UpdatedAt,
	}
	for _, key := range model.TrackingKeys {
		cells = append(cells, lead.Tracking[key])
	}
	return cells
}

func writeRow(b *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(cell))
	}
	b.WriteString("\r\n")
}

// escape quotes cells holding a comma, quote, CR or LF and doubles inner quotes.
func escape(cell string) string {
	if !strings.ContainsAny(cell, ",\"\r\n") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
