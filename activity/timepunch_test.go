package activity

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/roster-engine/generic"
	"github.com/warp/roster-engine/generic/store"
)

func punchWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseTimePunches(t *testing.T) {
	// GIVEN: a sheet with good rows, a blank row and broken rows
	buf := punchWorkbook(t, [][]any{
		{"Employee ID", "Clock In", "Clock Out", "Deliveries"},
		{"emp-1", "2024-06-10 09:00", "2024-06-10 17:00", "12"},
		{"emp-1", "6/11/2024 9:30 AM", "6/11/2024 5:00 PM", ""},
		{"", "", "", ""},
		{"", "2024-06-12 09:00", "2024-06-12 17:00", ""},
		{"emp-1", "yesterday", "2024-06-12 17:00", ""},
		{"emp-1", "2024-06-13 09:00", "2024-06-13 17:00", "lots"},
	})

	// WHEN: parsing in UTC
	punches, rowErrs, err := ParseTimePunches(buf, "punches.xlsx", time.UTC)

	// THEN: two punches, three row errors, blank row ignored
	require.NoError(t, err)
	require.Len(t, punches, 2)
	assert.Equal(t, 2, punches[0].Row)
	assert.Equal(t, generic.EmployeeID("emp-1"), punches[0].EmployeeID)
	assert.Equal(t, time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC), punches[0].LoginAt)
	assert.Equal(t, 12, punches[0].Deliveries)
	assert.Equal(t, time.Date(2024, time.June, 11, 17, 0, 0, 0, time.UTC), punches[1].LogoutAt)

	require.Len(t, rowErrs, 3)
	assert.Equal(t, RowError{Row: 5, Message: "missing employee"}, rowErrs[0])
	assert.Equal(t, RowError{Row: 6, Message: "unreadable clock in"}, rowErrs[1])
	assert.Equal(t, RowError{Row: 7, Message: "deliveries is not a number"}, rowErrs[2])
}

func TestParseTimePunches_BadHeader(t *testing.T) {
	buf := punchWorkbook(t, [][]any{{"Name", "Start"}, {"emp-1", "2024-06-10 09:00"}})
	_, _, err := ParseTimePunches(buf, "punches.xlsx", time.UTC)
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestParseTimePunches_NotASpreadsheet(t *testing.T) {
	_, _, err := ParseTimePunches(strings.NewReader("not a workbook"), "punches.xlsx", time.UTC)
	assert.Error(t, err)
}

func TestParsePunchTime_ExcelSerial(t *testing.T) {
	// 45453.375 is 2024-06-10 09:00
	got, ok := parsePunchTime("45453.375", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC), got)
}

func TestImport(t *testing.T) {
	repo := store.NewMemory()
	svc, _ := newTestService(t, repo)
	ctx := context.Background()
	at := func(day, hour int) time.Time { return time.Date(2024, time.June, day, hour, 0, 0, 0, time.UTC) }

	// WHEN: importing a mix of valid and invalid punches
	result, err := svc.Import(ctx, "store-a", []TimePunch{
		{Row: 2, EmployeeID: "emp-1", LoginAt: at(10, 9), LogoutAt: at(10, 17), Deliveries: 3},
		{Row: 3, EmployeeID: "emp-1", LoginAt: at(11, 17), LogoutAt: at(11, 9)},
		{Row: 4, EmployeeID: "emp-1", LoginAt: at(12, 9), LogoutAt: at(12, 17), Deliveries: -2},
		{Row: 5, EmployeeID: "ghost", LoginAt: at(13, 9), LogoutAt: at(13, 17)},
	})

	// THEN: only the valid row becomes a closed record
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, generic.ErrInvalidTimeRange.Error(), result.Errors[0].Message)
	assert.Equal(t, generic.ErrInvalidDeliveries.Error(), result.Errors[1].Message)
	assert.Equal(t, 5, result.Errors[2].Row)

	rec, err := repo.GetActivity(ctx, result.Imported[0])
	require.NoError(t, err)
	assert.False(t, rec.IsOpen())
	assert.Equal(t, 3, rec.Deliveries)

	_, err = svc.Import(ctx, "nowhere", nil)
	assert.ErrorIs(t, err, generic.ErrNotFound)
}
