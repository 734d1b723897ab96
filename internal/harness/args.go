package harness

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/roach88/blackbox/internal/domain"
)

// argError marks a malformed scenario argument. It aborts the run instead
// of being recorded as a step outcome.
type argError struct {
	key string
	msg string
}

func (e *argError) Error() string {
	return fmt.Sprintf("arg %q: %s", e.key, e.msg)
}

func isArgError(err error) bool {
	var ae *argError
	return errors.As(err, &ae)
}

// args wraps a step's YAML arguments with typed accessors. A missing key
// yields the default.
type args map[string]any

func (a args) has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a args) str(key, def string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &argError{key, fmt.Sprintf("want string, got %T", v)}
	}
	return s, nil
}

func (a args) integer(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, &argError{key, fmt.Sprintf("want whole number, got %v", n)}
		}
		return int(n), nil
	}
	return 0, &argError{key, fmt.Sprintf("want integer, got %T", v)}
}

func (a args) float(key string, def float64) (float64, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, &argError{key, fmt.Sprintf("want number, got %T", v)}
}

func (a args) boolean(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &argError{key, fmt.Sprintf("want bool, got %T", v)}
	}
	return b, nil
}

// stringList returns nil when key is absent so callers can tell "no tags
// given" from "empty tag list".
func (a args) stringList(key string) ([]string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &argError{key, fmt.Sprintf("want list, got %T", v)}
	}
	out := make([]string, 0, len(list))
	for i, elem := range list {
		s, ok := elem.(string)
		if !ok {
			return nil, &argError{key, fmt.Sprintf("element %d: want string, got %T", i, elem)}
		}
		out = append(out, s)
	}
	return out, nil
}

func (a args) timestamp(key string, def time.Time) (time.Time, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, &argError{key, err.Error()}
		}
		return parsed, nil
	}
	return time.Time{}, &argError{key, fmt.Sprintf("want timestamp, got %T", v)}
}

// answers converts a question-id map into questionnaire answers. Numbers
// become numeric answers, strings free text.
func (a args) answers(key string) (map[string]domain.Answer, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return map[string]domain.Answer{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &argError{key, fmt.Sprintf("want map, got %T", v)}
	}
	out := make(map[string]domain.Answer, len(m))
	for id, raw := range m {
		switch val := raw.(type) {
		case int:
			out[id] = domain.NumberAnswer(float64(val))
		case float64:
			out[id] = domain.NumberAnswer(val)
		case string:
			out[id] = domain.TextAnswer(val)
		default:
			return nil, &argError{key, fmt.Sprintf("answer %q: unsupported %T", id, raw)}
		}
	}
	return out, nil
}
