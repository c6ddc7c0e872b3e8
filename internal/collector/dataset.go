package collector

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/user/perfchart-go/internal/models"
)

// BuildDataset assembles one student's chart payload from marks records: one
// entry per record of that student (empty usn keeps all) in the semester (0
// keeps all), ordered by subject. Marks are the subject total out of 100
// rounded to two decimals.
func BuildDataset(records []models.MarksRecord, usn string, semester int) models.ChartDataset {
	usn = strings.TrimSpace(usn)
	selected := make([]models.MarksRecord, 0, len(records))
	for _, r := range records {
		if usn != "" && !strings.EqualFold(strings.TrimSpace(r.USN), usn) {
			continue
		}
		if semester == 0 || r.Semester == semester {
			selected = append(selected, r)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Subject < selected[j].Subject
	})

	ds := models.ChartDataset{
		Subjects:   make([]string, 0, len(selected)),
		Marks:      make([]float64, 0, len(selected)),
		Attendance: make([]float64, 0, len(selected)),
	}
	for _, r := range selected {
		ds.Subjects = append(ds.Subjects, r.Subject)
		ds.Marks = append(ds.Marks, round2(r.Total()))
		ds.Attendance = append(ds.Attendance, r.AttendancePercentage)
	}
	return ds
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LoadRecords reads marks records from a .json, .csv or .xlsx file. Tabular
// files need a header row naming the columns; only "subject" is required.
func LoadRecords(path string) ([]models.MarksRecord, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read marks file %s: %w", path, err)
		}
		var records []models.MarksRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("failed to parse marks JSON %s: %w", path, err)
		}
		return records, nil
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open marks file %s: %w", path, err)
		}
		defer f.Close()
		reader := csv.NewReader(f)
		reader.TrimLeadingSpace = true
		reader.FieldsPerRecord = -1
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to parse marks CSV %s: %w", path, err)
		}
		return parseRows(rows)
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open marks workbook %s: %w", path, err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("marks workbook %s has no sheets", path)
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheets[0], path, err)
		}
		return parseRows(rows)
	default:
		return nil, fmt.Errorf("unsupported marks file type '%s'. Must be .json, .csv or .xlsx", ext)
	}
}

// parseRows maps a header row plus data rows onto marks records.
func parseRows(rows [][]string) ([]models.MarksRecord, error) {
	if len(rows) == 0 {
		return nil, errors.New("marks table is empty: header row missing")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
		columns[key] = i
	}
	if _, ok := columns["subject"]; !ok {
		return nil, errors.New("marks table has no subject column")
	}

	records := make([]models.MarksRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		number := func(name string) (float64, error) {
			s := cell(name)
			if s == "" {
				return 0, nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, fmt.Errorf("row %d: invalid %s %q: %w", line, name, s, err)
			}
			return v, nil
		}

		if cell("subject") == "" {
			continue
		}
		r := models.MarksRecord{
			USN:         cell("usn"),
			Subject:     cell("subject"),
			SubjectCode: cell("subject_code"),
		}
		if s := cell("semester"); s != "" {
			sem, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid semester %q: %w", line, s, err)
			}
			r.Semester = sem
		}

		var err error
		for name, dst := range map[string]*float64{
			"internal1":             &r.Internal1,
			"internal2":             &r.Internal2,
			"external":              &r.External,
			"attendance_percentage": &r.AttendancePercentage,
		} {
			if *dst, err = number(name); err != nil {
				return nil, err
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// ReadDataset reads the raw dataset JSON a page would embed. A missing file
// yields nil and no error. Bytes that are not JSON at all are an error; JSON
// of the wrong shape is returned as is.
func ReadDataset(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file %s: %w", path, err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to parse dataset JSON %s: %w", path, err)
	}
	return raw, nil
}

// LoadDataset reads and decodes a chart dataset JSON file. A missing file or a
// JSON null yields a nil dataset and no error: the page simply has no data.
func LoadDataset(path string) (*models.ChartDataset, error) {
	raw, err := ReadDataset(path)
	if err != nil || raw == nil {
		return nil, err
	}

	var ds *models.ChartDataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset JSON %s: %w", path, err)
	}
	return ds, nil
}

// WriteDataset saves ds as indented JSON.
func WriteDataset(path string, ds *models.ChartDataset) error {
	jsonData, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset to JSON: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for dataset file %s: %w", path, err)
	}
	return os.WriteFile(path, jsonData, 0644)
}
