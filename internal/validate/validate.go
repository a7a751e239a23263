package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	reQ    = regexp.MustCompile(`^[\p{L}0-9 _'.&+\-]{1,100}$`)
	reSKU  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reExt  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reName = regexp.MustCompile(`^[\p{L}0-9 _'.&\-]{1,100}$`)
)

var sortFields = map[string]bool{
	"id": true, "title": true, "price": true, "rating": true, "createdAt": true,
	"brand": true, "category": true, "stock": true,
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s, reQ.MatchString(s)
}

// ID validates a numeric product id.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func SKU(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reSKU.MatchString(s)
}

// ExternalID validates an id assigned by the upstream product source.
func ExternalID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reExt.MatchString(s)
}

// Name validates a category or brand name.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, reName.MatchString(s)
}

// Page parses a zero-based page number; anything invalid is page 0.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Size parses a page size, falling back to def and clamping to max.
func Size(s string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	} // clamp to avoid abuse
	return n
}

func SortField(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, sortFields[s]
}

// Direction accepts asc or desc in any case and returns it lower-cased.
func Direction(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, s == "asc" || s == "desc"
}

var structs = validator.New()

// Struct checks v against its `validate` tags.
func Struct(v any) error {
	return structs.Struct(v)
}

// Message turns a Struct error into a short message safe to show a user.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max", "lte":
		return fmt.Sprintf("%s is too large", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s is too small", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
