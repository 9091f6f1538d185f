package apiutil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", field)
	}
	return value, nil
}

// ParseDateField validates a calendar day in 'YYYY-MM-DD' form and returns
// it normalized.
func ParseDateField(raw string, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("%s must be a valid date (YYYY-MM-DD)", field)
	}
	return parsed.Format(dateLayout), nil
}

// ParseClockField validates a zero-padded 'HH:MM' wall-clock string.
// Fixed-width zero padding keeps string comparison consistent with
// chronological comparison.
func ParseClockField(raw string, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if len(raw) != len(timeLayout) {
		return "", fmt.Errorf("%s must be in HH:MM format", field)
	}
	if _, err := time.Parse(timeLayout, raw); err != nil {
		return "", fmt.Errorf("%s must be in HH:MM format", field)
	}
	return raw, nil
}

// PathID parses the {id} path value of a request.
func PathID(r *http.Request) (int64, error) {
	return ParsePositiveInt64Field(r.PathValue("id"), "id")
}
