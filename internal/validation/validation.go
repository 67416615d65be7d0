// Package validation provides per-request input validators. Each validator
// returns the ordered list of field failures so handlers can surface every
// problem in one response.
package validation

import (
	"regexp"
	"strings"

	"devlink/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether the address is plausibly well-formed.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// Register validates a registration request.
func Register(name, email, password string) models.ValidationErrors {
	var errs models.ValidationErrors
	if strings.TrimSpace(name) == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "Your name is required."})
	}
	if !ValidEmail(email) {
		errs = append(errs, models.FieldError{Field: "email", Message: "Please provide a valid email address."})
	}
	if len(password) < 6 {
		errs = append(errs, models.FieldError{Field: "password", Message: "Your password must be at least 6 characters in length."})
	}
	return errs
}

// Login validates an authentication request.
func Login(email, password string) models.ValidationErrors {
	var errs models.ValidationErrors
	if !ValidEmail(email) {
		errs = append(errs, models.FieldError{Field: "email", Message: "Please include a valid e-mail."})
	}
	if password == "" {
		errs = append(errs, models.FieldError{Field: "password", Message: "Password is required."})
	}
	return errs
}

// Profile validates a profile upsert request.
func Profile(status, skills string) models.ValidationErrors {
	var errs models.ValidationErrors
	if strings.TrimSpace(status) == "" {
		errs = append(errs, models.FieldError{Field: "status", Message: "Status is required"})
	}
	if strings.TrimSpace(skills) == "" {
		errs = append(errs, models.FieldError{Field: "skills", Message: "Skills is required"})
	}
	return errs
}

// Experience validates a new work-history entry.
func Experience(title, company string, hasStartDate bool) models.ValidationErrors {
	var errs models.ValidationErrors
	if strings.TrimSpace(title) == "" {
		errs = append(errs, models.FieldError{Field: "title", Message: "Title is required."})
	}
	if strings.TrimSpace(company) == "" {
		errs = append(errs, models.FieldError{Field: "company", Message: "Company is required."})
	}
	if !hasStartDate {
		errs = append(errs, models.FieldError{Field: "start_date", Message: "Start date is required."})
	}
	return errs
}

// Education validates a new schooling entry.
func Education(school, degree, fieldOfStudy string, hasStartDate bool) models.ValidationErrors {
	var errs models.ValidationErrors
	if strings.TrimSpace(school) == "" {
		errs = append(errs, models.FieldError{Field: "school", Message: "School is required."})
	}
	if strings.TrimSpace(degree) == "" {
		errs = append(errs, models.FieldError{Field: "degree", Message: "Degree is required."})
	}
	if strings.TrimSpace(fieldOfStudy) == "" {
		errs = append(errs, models.FieldError{Field: "field_of_study", Message: "Field of study is required."})
	}
	if !hasStartDate {
		errs = append(errs, models.FieldError{Field: "start_date", Message: "Start date is required."})
	}
	return errs
}

// PostText validates the body of a post or comment.
func PostText(text string) models.ValidationErrors {
	var errs models.ValidationErrors
	if strings.TrimSpace(text) == "" {
		errs = append(errs, models.FieldError{Field: "text", Message: "Text is required."})
	}
	return errs
}

// ParseSkills splits a comma-delimited skills string into a trimmed, ordered
// list, dropping empty entries.
func ParseSkills(skills string) []string {
	parts := strings.Split(skills, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
