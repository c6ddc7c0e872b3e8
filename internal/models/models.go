package models

// ChartDataset is the payload a performance chart is drawn from.
// Subjects, Marks and Attendance are expected to have the same length and order,
// but nothing enforces it. A nil Subjects slice means the field was absent.
type ChartDataset struct {
	Subjects   []string  `json:"subjects"`
	Marks      []float64 `json:"marks"`      // Percent, conventionally 0-100
	Attendance []float64 `json:"attendance"` // Percent, conventionally 0-100
}

// MarksRecord is one subject's marks for a student in a given semester.
type MarksRecord struct {
	USN                  string  `json:"usn"`
	Semester             int     `json:"semester"`
	Subject              string  `json:"subject"`
	SubjectCode          string  `json:"subject_code"`
	Internal1            float64 `json:"internal1"` // Out of 25
	Internal2            float64 `json:"internal2"` // Out of 25
	External             float64 `json:"external"`  // Out of 50
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// Total returns the subject total out of 100.
func (m MarksRecord) Total() float64 {
	return m.Internal1 + m.Internal2 + m.External
}
