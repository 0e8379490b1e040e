package validation

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/OldStager01/healthcare-records/pkg/models"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters except newline and tab
	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// SanitizeInput trims the value and escapes HTML so stored free text can be
// rendered by any client without further escaping.
func SanitizeInput(input string) string {
	return html.EscapeString(SanitizeString(input))
}

func ValidateEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// ValidateUsername checks if a username is valid
func ValidateUsername(username string) error {
	username = SanitizeString(username)

	if username == "" {
		return errors.New("username cannot be empty")
	}

	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}

	if len(username) > 50 {
		return errors.New("username must not exceed 50 characters")
	}

	return nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}

	if len(password) > 72 {
		// bcrypt ignores everything past 72 bytes
		return errors.New("password must not exceed 72 characters")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one digit")
	}

	return nil
}

// ValidatePatient checks a patient record before it is stored.
func ValidatePatient(p *models.Patient) error {
	if p.ID <= 0 {
		return fmt.Errorf("%w: patient id must be positive", ErrInvalidInput)
	}

	required := map[string]string{
		"gender":         p.Gender,
		"ever_married":   p.EverMarried,
		"work_type":      p.WorkType,
		"Residence_type": p.ResidenceType,
		"smoking_status": p.SmokingStatus,
	}
	for _, field := range []string{"gender", "ever_married", "work_type", "Residence_type", "smoking_status"} {
		if strings.TrimSpace(required[field]) == "" {
			return fmt.Errorf("%w: missing required field: %s", ErrInvalidInput, field)
		}
	}

	if p.Age < 0 || p.Age > 120 {
		return fmt.Errorf("%w: age must be between 0 and 120", ErrInvalidInput)
	}

	if p.AvgGlucoseLevel < 0 || p.AvgGlucoseLevel > 500 {
		return fmt.Errorf("%w: glucose level must be between 0 and 500", ErrInvalidInput)
	}

	if p.BMI != nil && (*p.BMI <= 0 || *p.BMI > 150) {
		return fmt.Errorf("%w: bmi must be between 0 and 150", ErrInvalidInput)
	}

	validGender := false
	for _, g := range models.ValidGenders {
		if p.Gender == string(g) {
			validGender = true
			break
		}
	}
	if !validGender {
		return fmt.Errorf("%w: gender must be one of: Male, Female, Other", ErrInvalidInput)
	}

	binary := []struct {
		name  string
		value int
	}{
		{"hypertension", p.Hypertension},
		{"heart_disease", p.HeartDisease},
		{"stroke", p.Stroke},
	}
	for _, b := range binary {
		if b.value != 0 && b.value != 1 {
			return fmt.Errorf("%w: %s must be 0 or 1", ErrInvalidInput, b.name)
		}
	}

	return nil
}
