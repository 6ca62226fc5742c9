package query

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodigal-hub/engagement-hub/internal/domain/roster"
	"github.com/prodigal-hub/engagement-hub/pkg/timeutil"
)

func exportFixture() (*ExportCSVHandler, *fakeActivityStore) {
	activities := newFakeActivityStore()
	types := newFakeTypeStore()
	people := newFakeRoster(
		&roster.User{ID: "u1", Name: "Ana", TeamID: "1"},
		&roster.User{ID: "u2", Name: "Luis", TeamID: "2"},
	)
	return NewExportCSVHandler(activities, types, people), activities
}

func parseCSV(t *testing.T, content []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportCSVHandler_Handle(t *testing.T) {
	h, activities := exportFixture()
	ctx := context.Background()

	older := time.Now().UTC().AddDate(0, 0, -41)
	newer := time.Now().UTC().AddDate(0, 0, -40)

	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 3, older)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r2", "u2", 1, newer)))

	result, err := h.Handle(ctx, ExportCSVQuery{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, fmt.Sprintf("actividades_%s.csv", time.Now().UTC().Format("20060102")), result.Filename)

	rows := parseCSV(t, result.Content)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Fecha", "Usuario", "Equipo", "Actividad", "Cantidad", "Puntos Unitarios", "Puntos Totales"}, rows[0])

	// Date descending: the newer record comes first.
	assert.Equal(t, timeutil.FormatCSVDateStr(newer), rows[1][0])
	assert.Equal(t, "Luis", rows[1][1])
	assert.Equal(t, "Equipo Azul", rows[1][2])
	assert.Equal(t, "Simple", rows[1][3])
	assert.Equal(t, "1", rows[1][4])
	assert.Equal(t, "1", rows[1][5])
	assert.Equal(t, "1", rows[1][6])

	assert.Equal(t, "Ana", rows[2][1])
	assert.Equal(t, "3", rows[2][6])
}

func TestExportCSVHandler_Handle_TeamFilter(t *testing.T) {
	h, activities := exportFixture()
	ctx := context.Background()
	day := time.Now().UTC().AddDate(0, 0, -40)

	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 3, day)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r2", "u2", 1, day)))

	result, err := h.Handle(ctx, ExportCSVQuery{TeamID: "2"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RowCount)
	rows := parseCSV(t, result.Content)
	require.Len(t, rows, 2)
	assert.Equal(t, "Luis", rows[1][1])
}

func TestExportCSVHandler_Handle_TimeWindow(t *testing.T) {
	h, activities := exportFixture()
	ctx := context.Background()
	today := time.Now().UTC()

	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 3, today)))
	require.NoError(t, activities.Save(ctx, pointsRecord("r2", "u1", 1, today.AddDate(0, 0, -45))))

	result, err := h.Handle(ctx, ExportCSVQuery{Filter: FilterToday})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount)
}

func TestExportCSVHandler_Handle_UndatedRecord(t *testing.T) {
	h, activities := exportFixture()
	ctx := context.Background()

	require.NoError(t, activities.Save(ctx, pointsRecord("r1", "u1", 3, time.Time{})))

	result, err := h.Handle(ctx, ExportCSVQuery{})
	require.NoError(t, err)

	rows := parseCSV(t, result.Content)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[1][0]) // Fecha column stays blank
	assert.Equal(t, "Ana", rows[1][1])

	// Windowed exports drop undated records entirely.
	windowed, err := h.Handle(ctx, ExportCSVQuery{Filter: FilterMonth})
	require.NoError(t, err)
	assert.Zero(t, windowed.RowCount)
}

func TestExportCSVHandler_Handle_Empty(t *testing.T) {
	h, _ := exportFixture()

	result, err := h.Handle(context.Background(), ExportCSVQuery{})
	require.NoError(t, err)

	assert.Zero(t, result.RowCount)
	rows := parseCSV(t, result.Content)
	require.Len(t, rows, 1) // header only
}
