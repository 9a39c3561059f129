package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AcademicYearStartMonth is the first calendar month of an academic year.
var AcademicYearStartMonth = time.April

// ParseAcademicYear parses a "YYYY-YYYY+1" string and returns the start year.
func ParseAcademicYear(academicYear string) (int, error) {
	parts := strings.SplitN(academicYear, "-", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid academic year %q, want YYYY-YYYY", academicYear)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid academic year %q: %w", academicYear, err)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid academic year %q: %w", academicYear, err)
	}
	if end != start+1 {
		return 0, fmt.Errorf("invalid academic year %q: years must be consecutive", academicYear)
	}
	return start, nil
}

// CurrentAcademicYear derives the academic year containing the given instant.
// Anything before the start month belongs to the previous year's session.
func CurrentAcademicYear(now time.Time) string {
	year := now.Year()
	if now.Month() < AcademicYearStartMonth {
		year--
	}
	return fmt.Sprintf("%d-%d", year, year+1)
}
