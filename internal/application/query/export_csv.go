package query

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/prodigal-hub/engagement-hub/internal/domain/engagement"
	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
	"github.com/prodigal-hub/engagement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT CSV QUERY
// Flat export of activity records for spreadsheet reporting. Column
// headers keep the original Spanish names so existing report templates
// keep working.
// ══════════════════════════════════════════════════════════════════════════════

// csvHeaders are the fixed export columns.
var csvHeaders = []string{"Fecha", "Usuario", "Equipo", "Actividad", "Cantidad", "Puntos Unitarios", "Puntos Totales"}

// ExportCSVQuery contains the parameters for a CSV export.
type ExportCSVQuery struct {
	// Filter narrows which records are exported.
	Filter TimeFilter

	// TeamID limits the export to one team. Empty means everyone.
	TeamID string
}

// Validate validates the query parameters.
func (q *ExportCSVQuery) Validate() error {
	if q.Filter == "" {
		q.Filter = FilterAll
	}
	return nil
}

// ExportCSVResult contains the rendered export.
type ExportCSVResult struct {
	// Content is the UTF-8 CSV payload including the header row.
	Content []byte

	// Filename is a suggested download name.
	Filename string

	// RowCount is the number of data rows (excluding the header).
	RowCount int
}

// ExportCSVHandler handles CSV exports.
type ExportCSVHandler struct {
	activities engagement.ActivityStore
	types      engagement.TypeStore
	roster     roster.Repository
}

// NewExportCSVHandler creates a new ExportCSVHandler.
func NewExportCSVHandler(
	activities engagement.ActivityStore,
	types engagement.TypeStore,
	rosterRepo roster.Repository,
) *ExportCSVHandler {
	return &ExportCSVHandler{
		activities: activities,
		types:      types,
		roster:     rosterRepo,
	}
}

// Handle renders the export. Rows are ordered by date descending;
// records without a date sort last.
func (h *ExportCSVHandler) Handle(ctx context.Context, q ExportCSVQuery) (*ExportCSVResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	records, err := h.activities.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export_csv: failed to load records: %w", err)
	}

	users, err := h.roster.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("export_csv: failed to load users: %w", err)
	}
	userByID := make(map[string]*roster.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	teamNames := make(map[string]string)
	if teams, err := h.roster.GetTeams(ctx); err == nil {
		for _, t := range teams {
			teamNames[t.ID] = t.Name
		}
	}

	typeByID := make(map[string]*engagement.ActivityType)
	if types, err := h.types.GetAll(ctx); err == nil {
		for _, t := range types {
			typeByID[t.ID] = t
		}
	}

	now := time.Now().UTC()
	filtered := make([]*engagement.ActivityRecord, 0, len(records))
	for _, r := range records {
		if !q.Filter.Contains(now, r.Date) {
			continue
		}
		u := userByID[r.UserID]
		if q.TeamID != "" && (u == nil || u.TeamID != q.TeamID) {
			continue
		}
		filtered = append(filtered, r)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Date.After(filtered[j].Date)
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("export_csv: %w", err)
	}

	for _, r := range filtered {
		row := make([]string, len(csvHeaders))
		if r.HasDate() {
			row[0] = timeutil.FormatCSVDateStr(r.Date)
		}
		if u := userByID[r.UserID]; u != nil {
			row[1] = u.Name
			row[2] = teamNames[u.TeamID]
		}
		unitPoints := 0
		if t := typeByID[r.ActivityTypeID]; t != nil {
			row[3] = t.Name
			unitPoints = t.Points
		} else {
			row[3] = r.ActivityTypeID
		}
		row[4] = strconv.Itoa(r.Quantity)
		row[5] = strconv.Itoa(unitPoints)
		row[6] = strconv.Itoa(r.Points)

		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("export_csv: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export_csv: %w", err)
	}

	return &ExportCSVResult{
		Content:  buf.Bytes(),
		Filename: fmt.Sprintf("actividades_%s.csv", now.Format("20060102")),
		RowCount: len(filtered),
	}, nil
}
