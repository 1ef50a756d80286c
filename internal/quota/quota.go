// Package quota decides whether a student's hour request fits the
// configured caps. Every function here is pure and safe for concurrent use.
package quota

import "fmt"

const (
	// DefaultTotalCap is the maximum number of hours a student may accumulate for a course.
	DefaultTotalCap = 120
	// DefaultSemesterCap is the maximum number of hours a student may accumulate per semester.
	DefaultSemesterCap = 72
)

// Verdict is the outcome of a quota check. A rejected verdict carries the
// reason in Message; checks never fail with an error.
type Verdict struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Policy describes the caps applied to a named group of activities.
type Policy struct {
	Name        string
	TotalCap    int
	SemesterCap int
}

var (
	// Extension caps hours claimed for extension activities.
	Extension = Policy{Name: "Extension", TotalCap: DefaultTotalCap, SemesterCap: DefaultSemesterCap}
	// Teaching caps hours claimed for teaching activities.
	Teaching = Policy{Name: "Teaching", TotalCap: DefaultTotalCap, SemesterCap: DefaultSemesterCap}
)

// Validate checks the total cap first and the semester cap second.
func (p Policy) Validate(totalHours, semesterHours, requestedHours int) Verdict {
	if requestedHours+totalHours > p.TotalCap {
		return Verdict{
			Success: false,
			Message: fmt.Sprintf("requested %s hours exceed the maximum allowed for the course (%d hours)", p.Name, p.TotalCap),
		}
	}
	if requestedHours+semesterHours > p.SemesterCap {
		return Verdict{
			Success: false,
			Message: fmt.Sprintf("requested %s hours exceed the maximum allowed for the semester (%d hours)", p.Name, p.SemesterCap),
		}
	}
	return Verdict{
		Success: true,
		Message: fmt.Sprintf("hours are valid for %s activities", p.Name),
	}
}

// ValidateHoursDistributionForExtension applies the Extension policy.
func ValidateHoursDistributionForExtension(totalHours, semesterHours, requestedHours int) Verdict {
	return Extension.Validate(totalHours, semesterHours, requestedHours)
}

// ValidateHoursDistributionForTeaching applies the Teaching policy.
func ValidateHoursDistributionForTeaching(totalHours, semesterHours, requestedHours int) Verdict {
	return Teaching.Validate(totalHours, semesterHours, requestedHours)
}

// ValidateCategoryQuota checks a request against a single category cap,
// considering only hours already approved within that category.
func ValidateCategoryQuota(categoryName string, approvedHours, requestedHours, maxHours int) Verdict {
	if approvedHours+requestedHours > maxHours {
		return Verdict{
			Success: false,
			Message: fmt.Sprintf("maximum hours for category %s exceeded: %d hours already approved and the limit is %d hours", categoryName, approvedHours, maxHours),
		}
	}
	return Verdict{
		Success: true,
		Message: fmt.Sprintf("hours are valid for category %s", categoryName),
	}
}
