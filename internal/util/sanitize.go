package util

import (
	"net/http"
	"strings"
	"unicode"

	"go-bookshelf-api/pkg/apierror"
)

const maxSegmentLength = 150

// MediaSegment turns a user-controlled value such as a username into a single
// directory name under the media root. Characters outside letters, digits
// and "._@+-" become underscores, and leading dots are replaced so the
// segment is never hidden or a parent reference.
func MediaSegment(value string) (string, error) {
	builder := strings.Builder{}
	builder.Grow(len(value))

	for _, char := range strings.TrimSpace(value) {
		switch {
		case unicode.IsControl(char) || isInvisibleUnicode(char):
			continue
		case unicode.IsLetter(char) || unicode.IsDigit(char) || strings.ContainsRune("._@+-", char):
			builder.WriteRune(char)
		default:
			builder.WriteRune('_')
		}
	}

	runes := []rune(builder.String())
	for i := 0; i < len(runes) && runes[i] == '.'; i++ {
		runes[i] = '_'
	}
	// Truncate by runes (not bytes) to avoid splitting multi-byte characters.
	if len(runes) > maxSegmentLength {
		runes = runes[:maxSegmentLength]
	}

	segment := string(runes)
	if strings.Trim(segment, "_") == "" {
		return "", apierror.New("INVALID_PATH", "value cannot be used as a media directory", value, http.StatusBadRequest)
	}

	return segment, nil
}

// isInvisibleUnicode reports zero-width and other formatting characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u2060', '\uFEFF':
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
