package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"jo@example.com", true},
		{"jo.dev+tag@sub.example.co", true},
		{"  jo@example.com  ", true},
		{"", false},
		{"plainaddress", false},
		{"no@tld", false},
		{"two@@example.com", false},
		{"spaces in@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidEmail(tt.email))
		})
	}
}

func TestRegister(t *testing.T) {
	t.Run("Valid input has no errors", func(t *testing.T) {
		assert.Empty(t, Register("Jo Dev", "jo@example.com", "password123"))
	})

	t.Run("Collects every failure", func(t *testing.T) {
		errs := Register("  ", "bad", "12345")
		assert.Len(t, errs, 3)
		assert.Equal(t, "name", errs[0].Field)
		assert.Equal(t, "email", errs[1].Field)
		assert.Equal(t, "password", errs[2].Field)
		assert.Equal(t, "Your password must be at least 6 characters in length.", errs[2].Message)
	})

	t.Run("Six character password passes", func(t *testing.T) {
		assert.Empty(t, Register("Jo", "jo@example.com", "123456"))
	})
}

func TestLogin(t *testing.T) {
	assert.Empty(t, Login("jo@example.com", "x"))

	errs := Login("nope", "")
	assert.Len(t, errs, 2)
	assert.Equal(t, "Please include a valid e-mail.", errs[0].Message)
	assert.Equal(t, "Password is required.", errs[1].Message)
}

func TestProfile(t *testing.T) {
	assert.Empty(t, Profile("Developer", "go, js"))

	errs := Profile("", "  ")
	assert.Len(t, errs, 2)
	assert.Equal(t, "Status is required", errs[0].Message)
	assert.Equal(t, "Skills is required", errs[1].Message)
}

func TestExperience(t *testing.T) {
	assert.Empty(t, Experience("Engineer", "Acme", true))

	errs := Experience("", "", false)
	assert.Len(t, errs, 3)
}

func TestEducation(t *testing.T) {
	assert.Empty(t, Education("MIT", "BSc", "CS", true))

	errs := Education("", "BSc", "", false)
	assert.Len(t, errs, 3)
	assert.Equal(t, "school", errs[0].Field)
	assert.Equal(t, "field_of_study", errs[1].Field)
	assert.Equal(t, "start_date", errs[2].Field)
}

func TestPostText(t *testing.T) {
	assert.Empty(t, PostText("hello"))
	assert.Len(t, PostText("   "), 1)
}

func TestParseSkills(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"Trims and splits", " js ,  go ", []string{"js", "go"}},
		{"Drops empties", "js,,go,", []string{"js", "go"}},
		{"Single skill", "go", []string{"go"}},
		{"Preserves order", "c, b, a", []string{"c", "b", "a"}},
		{"All empty", " , ,", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSkills(tt.input))
		})
	}
}
