package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// IsResolved reports whether the status counts towards resolution metrics.
func (s Status) IsResolved() bool {
	return s == StatusResolved || s == StatusClosed
}

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Elevated reports whether the priority demands attention regardless of status.
func (p Priority) Elevated() bool {
	return p == PriorityHigh || p == PriorityUrgent
}

type Category string

const (
	CategoryInfrastructure Category = "Infrastructure"
	CategoryWater          Category = "Water"
	CategoryRoads          Category = "Roads"
	CategorySanitation     Category = "Sanitation"
	CategoryTraffic        Category = "Traffic"
	CategoryParks          Category = "Parks"
	CategoryHealth         Category = "Health"
	CategoryEducation      Category = "Education"
	CategoryOther          Category = "Other"
)

var Categories = []Category{
	CategoryInfrastructure,
	CategoryWater,
	CategoryRoads,
	CategorySanitation,
	CategoryTraffic,
	CategoryParks,
	CategoryHealth,
	CategoryEducation,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	DepartmentPublicWorks = "Public Works"
	DepartmentWater       = "Water Department"
	DepartmentSanitation  = "Sanitation"
	DepartmentTraffic     = "Traffic"
	DepartmentParks       = "Parks and Recreation"
	DepartmentHealth      = "Health"
	DepartmentEducation   = "Education"
	DepartmentElectricity = "Electricity"
)

// departmentCodes maps each department to its report code prefix.
var departmentCodes = map[string]string{
	DepartmentPublicWorks: "PWD",
	DepartmentWater:       "WTR",
	DepartmentSanitation:  "SAN",
	DepartmentTraffic:     "TRF",
	DepartmentParks:       "PRK",
	DepartmentHealth:      "HLT",
	DepartmentEducation:   "EDU",
	DepartmentElectricity: "ELC",
}

var Departments = []string{
	DepartmentPublicWorks,
	DepartmentWater,
	DepartmentSanitation,
	DepartmentTraffic,
	DepartmentParks,
	DepartmentHealth,
	DepartmentEducation,
	DepartmentElectricity,
}

func KnownDepartment(name string) bool {
	_, ok := departmentCodes[name]
	return ok
}

func DepartmentCode(name string) (string, bool) {
	code, ok := departmentCodes[name]
	return code, ok
}

const (
	MandalNorth   = "North Zone"
	MandalSouth   = "South Zone"
	MandalEast    = "East Zone"
	MandalWest    = "West Zone"
	MandalCentral = "Central Zone"
	MandalAll     = "All Zones"
)

var MandalAreas = []string{
	MandalNorth,
	MandalSouth,
	MandalEast,
	MandalWest,
	MandalCentral,
	MandalAll,
}

func KnownMandalArea(name string) bool {
	for _, area := range MandalAreas {
		if area == name {
			return true
		}
	}
	return false
}

// Report is a citizen-filed civic issue, the unit of aggregation.
type Report struct {
	ID              string    `json:"id" yaml:"id"`
	ReportCode      string    `json:"reportCode" yaml:"reportCode"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description" yaml:"description"`
	Category        Category  `json:"category" yaml:"category"`
	Priority        Priority  `json:"priority" yaml:"priority"`
	Status          Status    `json:"status" yaml:"status"`
	Department      string    `json:"department" yaml:"department"`
	MandalArea      string    `json:"mandalArea" yaml:"mandalArea"`
	ReporterID      string    `json:"reporterId" yaml:"reporterId"`
	AssignedTo      string    `json:"assignedTo,omitempty" yaml:"assignedTo,omitempty"`
	ResolutionNotes string    `json:"resolutionNotes,omitempty" yaml:"resolutionNotes,omitempty"`
	CreatedAt       time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// ResolutionTime is the elapsed time between creation and the last update.
func (r Report) ResolutionTime() time.Duration {
	return r.UpdatedAt.Sub(r.CreatedAt)
}

// ValidateReport checks the invariants every stored report must satisfy.
func ValidateReport(r Report) error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return NewValidationError("title", "is required")
	case !r.Category.Valid():
		return NewValidationError("category", fmt.Sprintf("unknown category %q", r.Category))
	case !r.Priority.Valid():
		return NewValidationError("priority", fmt.Sprintf("unknown priority %q", r.Priority))
	case !r.Status.Valid():
		return NewValidationError("status", fmt.Sprintf("unknown status %q", r.Status))
	case !KnownDepartment(r.Department):
		return NewValidationError("department", fmt.Sprintf("unknown department %q", r.Department))
	case !KnownMandalArea(r.MandalArea):
		return NewValidationError("mandalArea", fmt.Sprintf("unknown mandal area %q", r.MandalArea))
	case r.CreatedAt.IsZero():
		return NewValidationError("createdAt", "is required")
	case r.UpdatedAt.Before(r.CreatedAt):
		return NewValidationError("updatedAt", "must not precede createdAt")
	}
	return nil
}

// FormatReportCode renders <DEPTCODE>-<YEAR>-<sequence>, sequence zero-padded to 4 digits.
func FormatReportCode(department string, year, sequence int) (string, error) {
	code, ok := DepartmentCode(department)
	if !ok {
		return "", NewValidationError("department", fmt.Sprintf("unknown department %q", department))
	}
	if sequence <= 0 {
		return "", NewValidationError("sequence", "must be positive")
	}
	return fmt.Sprintf("%s-%d-%04d", code, year, sequence), nil
}

// ParseReportCode splits a report code into its prefix, year and sequence.
func ParseReportCode(value string) (prefix string, year, sequence int, err error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 3 || parts[0] == "" {
		return "", 0, 0, NewValidationError("reportCode", "must match DEPT-YEAR-SEQ")
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 {
		return "", 0, 0, NewValidationError("reportCode", "invalid year")
	}
	sequence, err = strconv.Atoi(parts[2])
	if err != nil || sequence <= 0 {
		return "", 0, 0, NewValidationError("reportCode", "invalid sequence")
	}
	return parts[0], year, sequence, nil
}

// CheckReportCode reports whether the report's code belongs to its department
// and creation year, returning the parsed sequence.
func CheckReportCode(report Report) (int, error) {
	prefix, year, sequence, err := ParseReportCode(report.ReportCode)
	if err != nil {
		return 0, err
	}
	if code, _ := DepartmentCode(report.Department); prefix != code {
		return 0, NewValidationError("reportCode", fmt.Sprintf("prefix %q does not match department %q", prefix, report.Department))
	}
	if created := report.CreatedAt.UTC().Year(); year != created {
		return 0, NewValidationError("reportCode", fmt.Sprintf("year %d does not match creation year %d", year, created))
	}
	return sequence, nil
}
