package activity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/sirupsen/logrus"
	"github.com/warp/roster-engine/generic"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TIME-PUNCH IMPORT - Historical punches from a payroll export
// =============================================================================

// TimePunch is one parsed spreadsheet row.
type TimePunch struct {
	Row        int // 1-based spreadsheet row
	EmployeeID generic.EmployeeID
	LoginAt    time.Time
	LogoutAt   time.Time
	Deliveries int
}

// RowError explains why a row was skipped.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Imported []generic.ActivityID `json:"imported"`
	Errors   []RowError           `json:"errors,omitempty"`
}

const maxPunchRows = 100000

var punchTimeFormats = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"01/02/2006 03:04 PM",
	"1/2/2006 3:04:05 PM",
	"01/02/2006 15:04:05",
	"1/2/06 15:04",
	"1/2/06 3:04 PM",
}

// ParseTimePunches reads a single-sheet .xlsx or .xls file. The header row
// must name an employee column, a clock-in column and a clock-out column;
// deliveries is optional. Times are read in loc. Rows that can't be parsed are
// returned as RowErrors; the file itself failing to open is an error.
func ParseTimePunches(r io.Reader, filename string, loc *time.Location) ([]TimePunch, []RowError, error) {
	rows, err := readRowsFromSpreadsheet(r, filename)
	if err != nil {
		return nil, nil, err
	}

	header := rows[0]
	employeeIdx := findColumn(header, "employee id", "employee_id", "employee")
	inIdx := findColumn(header, "clock in", "clock_in", "login", "in")
	outIdx := findColumn(header, "clock out", "clock_out", "logout", "out")
	deliveriesIdx := findColumn(header, "deliveries")
	if employeeIdx < 0 || inIdx < 0 || outIdx < 0 {
		return nil, nil, generic.Invalid(generic.ErrInvalidInput, "file", "header must name employee, clock in and clock out columns")
	}

	var (
		punches []TimePunch
		errs    []RowError
	)
	for i, row := range rows[1:] {
		rowNum := i + 2
		employee := cellValue(row, employeeIdx)
		if employee == "" && cellValue(row, inIdx) == "" {
			continue // blank line
		}
		if employee == "" {
			errs = append(errs, RowError{Row: rowNum, Message: "missing employee"})
			continue
		}
		login, ok := parsePunchTime(cellValue(row, inIdx), loc)
		if !ok {
			errs = append(errs, RowError{Row: rowNum, Message: "unreadable clock in"})
			continue
		}
		logout, ok := parsePunchTime(cellValue(row, outIdx), loc)
		if !ok {
			errs = append(errs, RowError{Row: rowNum, Message: "unreadable clock out"})
			continue
		}
		deliveries := 0
		if v := cellValue(row, deliveriesIdx); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, RowError{Row: rowNum, Message: "deliveries is not a number"})
				continue
			}
			deliveries = n
		}
		punches = append(punches, TimePunch{
			Row:        rowNum,
			EmployeeID: generic.EmployeeID(employee),
			LoginAt:    login,
			LogoutAt:   logout,
			Deliveries: deliveries,
		})
	}
	return punches, errs, nil
}

// Import validates punches against the directory and inserts the valid ones
// as closed activity records in one transaction.
func (s *Service) Import(ctx context.Context, storeID generic.StoreID, punches []TimePunch) (ImportResult, error) {
	var result ImportResult
	err := s.repo.WithTx(ctx, func(repo generic.Repository) error {
		result = ImportResult{}
		store, err := repo.GetStore(ctx, storeID)
		if err != nil {
			return err
		}
		employees := make(map[generic.EmployeeID]generic.Employee)

		for _, p := range punches {
			if p.Deliveries < 0 {
				result.Errors = append(result.Errors, RowError{Row: p.Row, Message: generic.ErrInvalidDeliveries.Error()})
				continue
			}
			if !p.LogoutAt.After(p.LoginAt) {
				result.Errors = append(result.Errors, RowError{Row: p.Row, Message: generic.ErrInvalidTimeRange.Error()})
				continue
			}
			emp, ok := employees[p.EmployeeID]
			if !ok {
				emp, err = repo.GetEmployee(ctx, p.EmployeeID)
				if err != nil {
					result.Errors = append(result.Errors, RowError{Row: p.Row, Message: err.Error()})
					continue
				}
				employees[p.EmployeeID] = emp
			}
			if !memberOf(emp, store.ID) {
				result.Errors = append(result.Errors, RowError{Row: p.Row, Message: generic.ErrNotMember.Error()})
				continue
			}

			holiday, err := repo.IsHoliday(ctx, store.ID, generic.DateIn(p.LoginAt, store.Location()))
			if err != nil {
				return err
			}
			logout := p.LogoutAt
			record := generic.ActivityRecord{
				ID:            generic.ActivityID(generic.NewID()),
				StoreID:       store.ID,
				EmployeeID:    p.EmployeeID,
				LoginAt:       p.LoginAt,
				LogoutAt:      &logout,
				Deliveries:    p.Deliveries,
				PublicHoliday: holiday,
				CreatedAt:     s.now(),
			}
			if err := repo.InsertActivity(ctx, record); err != nil {
				return fmt.Errorf("row %d: %w", p.Row, err)
			}
			result.Imported = append(result.Imported, record.ID)
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.log.WithFields(logrus.Fields{
		"store_id": storeID,
		"imported": len(result.Imported),
		"skipped":  len(result.Errors),
	}).Info("time punches imported")
	return result, nil
}

func memberOf(e generic.Employee, store generic.StoreID) bool {
	for _, s := range e.Stores {
		if s == store {
			return true
		}
	}
	return false
}

func readRowsFromSpreadsheet(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, generic.Invalid(generic.ErrInvalidInput, "file", "no worksheet found")
		}
		if workbook.NumSheets() > 1 {
			return nil, generic.Invalid(generic.ErrInvalidInput, "file", "multiple worksheets found; upload a file with a single sheet")
		}
		rows := workbook.ReadAllCells(maxPunchRows)
		if len(rows) == 0 {
			return nil, generic.Invalid(generic.ErrInvalidInput, "file", "worksheet is empty")
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, generic.Invalid(generic.ErrInvalidInput, "file", "no worksheet found")
		}
		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, generic.Invalid(generic.ErrInvalidInput, "file", "worksheet is empty")
		}
		return rows, nil
	}
}

func findColumn(header []string, names ...string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if h == name {
				return i
			}
		}
	}
	return -1
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parsePunchTime accepts text timestamps and Excel date-time serials.
func parsePunchTime(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		parsed, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		// serials carry wall-clock time only
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(),
			parsed.Hour(), parsed.Minute(), parsed.Second(), 0, loc), true
	}
	for _, layout := range punchTimeFormats {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}
