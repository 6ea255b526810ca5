// internal/dashboard/export.go
package dashboard

import (
	"context"
	"strconv"
	"strings"
	"time"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/metrics"
	"talent-intake/internal/models"
)

// ExportHeader is the fixed column order of every export.
var ExportHeader = []string{
	"Name", "Email", "Phone", "Role", "Experience", "Education", "Status", "Rating", "Applied Date",
}

// selected keeps the records whose id is in ids, in list order.
func selected(apps []models.Application, ids []string) []models.Application {
	want := NewSet(ids...)
	out := make([]models.Application, 0, len(ids))
	for _, app := range apps {
		if _, ok := want[app.ID]; ok {
			out = append(out, app)
		}
	}
	return out
}

// CountSelected is the number of data rows an export of ids produces.
func CountSelected(apps []models.Application, ids []string) int {
	return len(selected(apps, ids))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportCSV renders the selected records as CSV. Text columns are always quoted, the
// rating is a bare number (empty when unrated) and the date is YYYY-MM-DD.
func ExportCSV(apps []models.Application, ids []string) string {
	var b strings.Builder
	b.WriteString(strings.Join(ExportHeader, ","))
	b.WriteString("\n")

	for _, app := range selected(apps, ids) {
		rating := ""
		if app.Rating != nil {
			rating = strconv.Itoa(*app.Rating)
		}
		fields := []string{
			quote(app.FullName),
			quote(app.Email),
			quote(app.PhoneNumber),
			quote(app.Role),
			quote(app.ExperienceYears),
			quote(app.EducationLevel),
			quote(string(app.EffectiveStatus())),
			rating,
			quote(app.CreatedAt.Format(time.DateOnly)),
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteString("\n")
	}
	return b.String()
}

// ExportRows returns the header followed by one row per selected record, in the cell
// form the Sheets API expects.
func ExportRows(apps []models.Application, ids []string) [][]interface{} {
	header := make([]interface{}, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	rows := [][]interface{}{header}

	for _, app := range selected(apps, ids) {
		var rating interface{} = ""
		if app.Rating != nil {
			rating = *app.Rating
		}
		rows = append(rows, []interface{}{
			app.FullName,
			app.Email,
			app.PhoneNumber,
			app.Role,
			app.ExperienceYears,
			app.EducationLevel,
			string(app.EffectiveStatus()),
			rating,
			app.CreatedAt.Format(time.DateOnly),
		})
	}
	return rows
}

// SheetWriter replaces the contents of a spreadsheet range.
type SheetWriter interface {
	ReplaceValues(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) (int64, error)
}

// ExportToSheet writes the selected records to a spreadsheet and returns the number of
// rows written, header included.
func ExportToSheet(ctx context.Context, w SheetWriter, spreadsheetID, range_ string, apps []models.Application, ids []string) (int64, error) {
	n, err := w.ReplaceValues(ctx, spreadsheetID, range_, ExportRows(apps, ids))
	metrics.Exports.WithLabelValues("sheets", metrics.Result(err)).Inc()
	if err != nil {
		return 0, errors.NewExportFailedError("sheets", err)
	}
	return n, nil
}
