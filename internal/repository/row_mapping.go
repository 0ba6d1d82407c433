package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"study-highlights/internal/domain"
)

// Rows come back from PostgREST as loosely typed JSON objects. The helpers
// below read them; firstX variants accept several column names because the
// backend schema spells some columns differently per table.

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok && val != nil {
		switch v := val.(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func getStringPointer(data map[string]interface{}, key string) *string {
	if str := getString(data, key); str != "" {
		return &str
	}
	return nil
}

func firstString(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := getString(data, key); s != "" {
			return s
		}
	}
	return ""
}

func getInt(data map[string]interface{}, key string) (int, bool) {
	val, ok := data[key]
	if !ok || val == nil {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i, true
		}
	}
	return 0, false
}

func firstInt(data map[string]interface{}, keys ...string) (int, bool) {
	for _, key := range keys {
		if i, ok := getInt(data, key); ok {
			return i, true
		}
	}
	return 0, false
}

func getTime(data map[string]interface{}, keys ...string) time.Time {
	raw := firstString(data, keys...)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

var reControl = regexp.MustCompile(`[\x00]`)

// sanitizeText removes characters that PostgreSQL rejects in text fields (notably NUL bytes).
func sanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = reControl.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\\u0000", "")
	return s
}

// Markers PostgREST and GoTrue use when a request is rejected for the caller
// rather than failing: RLS violations and bad or expired JWTs.
var unauthorizedMarkers = []string{
	"42501",
	"pgrst301",
	"pgrst302",
	"permission denied",
	"row-level security",
	"jwt",
}

// classifyRemoteError wraps err with domain.ErrUnauthorized when the backend
// rejected the caller and domain.ErrRemoteUnavailable otherwise.
func classifyRemoteError(action string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrRemoteUnavailable) {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if errors.Is(err, domain.ErrInvalidToken) {
		return fmt.Errorf("failed to %s: %w: %w", action, domain.ErrUnauthorized, err)
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range unauthorizedMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("failed to %s: %w: %w", action, domain.ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("failed to %s: %w: %w", action, domain.ErrRemoteUnavailable, err)
}
