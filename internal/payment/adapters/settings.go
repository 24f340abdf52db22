package adapters

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Settings is a provider's free-form configuration block.
type Settings map[string]any

func (s Settings) String(key string) string {
	value, ok := s[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func (s Settings) Int64(key string) (int64, error) {
	value, ok := s[key]
	if !ok || value == nil {
		return 0, nil
	}
	switch typed := value.(type) {
	case int:
		return int64(typed), nil
	case int64:
		return typed, nil
	case float64:
		return int64(typed), nil
	case string:
		if strings.TrimSpace(typed) == "" {
			return 0, nil
		}
		return strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
	default:
		return 0, fmt.Errorf("setting %s: unsupported type %T", key, value)
	}
}

func (s Settings) Duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := s.String(key)
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

// Require returns an error naming every missing key.
func (s Settings) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if s.String(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
