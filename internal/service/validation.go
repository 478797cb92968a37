package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/pkg/apierror"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."

	maxUsernameLength = 150
	maxNameLength     = 150
	maxBioLength      = 500
	maxTitleLength    = 200
	maxAuthorLength   = 100
)

var (
	usernamePattern   = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	authorNamePattern = regexp.MustCompile(`^[a-zA-Z\s\-'\.]+$`)
)

func validateUsername(username string) string {
	switch {
	case username == "":
		return msgRequired
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return fmt.Sprintf("Ensure this field has no more than %d characters.", maxUsernameLength)
	case !usernamePattern.MatchString(username):
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	return ""
}

func validateEmail(email string) string {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "Enter a valid email address."
	}
	return ""
}

func validateNameFields(fields apierror.FieldErrors, firstName string, lastName string) {
	if utf8.RuneCountInString(strings.TrimSpace(firstName)) > maxNameLength {
		fields.Add("first_name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
	if utf8.RuneCountInString(strings.TrimSpace(lastName)) > maxNameLength {
		fields.Add("last_name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
}

func validateBio(bio string) string {
	if utf8.RuneCountInString(strings.TrimSpace(bio)) > maxBioLength {
		return fmt.Sprintf("Ensure this field has no more than %d characters.", maxBioLength)
	}
	return ""
}

// parseDateOfBirth accepts an empty value as "not set". Dates in the future
// are rejected.
func parseDateOfBirth(raw string, now time.Time) (*time.Time, string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ""
	}

	dob, err := time.Parse(model.DateLayout, trimmed)
	if err != nil {
		return nil, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	}
	if dob.After(now) {
		return nil, "Date of birth cannot be in the future."
	}
	return &dob, ""
}

// validateAuthorName trims the name and reports the first rule it breaks.
func validateAuthorName(raw *string) (string, string) {
	if raw == nil {
		return "", msgRequired
	}

	name := strings.TrimSpace(*raw)
	switch {
	case name == "":
		return "", msgBlank
	case utf8.RuneCountInString(name) < 2:
		return "", "Author name must be at least 2 characters long."
	case utf8.RuneCountInString(name) > maxAuthorLength:
		return "", fmt.Sprintf("Ensure this field has no more than %d characters.", maxAuthorLength)
	case !authorNamePattern.MatchString(name):
		return "", "Author name can only contain letters, spaces, hyphens, apostrophes, and periods."
	}
	return name, ""
}

func validateBookTitle(raw string) (string, string) {
	title := strings.TrimSpace(raw)
	switch {
	case title == "":
		return "", msgBlank
	case utf8.RuneCountInString(title) > maxTitleLength:
		return "", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength)
	}
	return title, ""
}

func validatePublicationYear(year int, now time.Time) string {
	current := now.Year()
	switch {
	case year < 0:
		return "Ensure this value is greater than or equal to 0."
	case year > current:
		return fmt.Sprintf("Publication year cannot be in the future. Current year is %d, but got %d.", current, year)
	}
	return ""
}

func requiredText(raw *string, field string, maxLength int, fields apierror.FieldErrors) string {
	if raw == nil {
		fields.Add(field, msgRequired)
		return ""
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		fields.Add(field, msgBlank)
		return ""
	}
	if maxLength > 0 && utf8.RuneCountInString(value) > maxLength {
		fields.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxLength))
		return ""
	}
	return value
}
