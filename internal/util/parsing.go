package util

import (
	"strconv"
	"strings"
	"time"

	"github.com/scheerer/led-foot/internal/color"
)

type StringParsable interface {
	string | []string | int | float64 | bool | time.Duration | []time.Duration | color.Color
}

func envVarStringSplitter(s string) []string {
	parts := strings.Split(s, ",")
	v := make([]string, 0, len(parts))
	for _, p := range parts {
		v = append(v, strings.TrimSpace(p))
	}
	return v
}

func envSliceTypeParser[T any](s string, f func(string) (T, error)) ([]T, error) {
	parts := envVarStringSplitter(s)
	v := make([]T, 0, len(parts))
	for _, p := range parts {
		v2, err := f(p)
		if err != nil {
			return v, err
		}
		v = append(v, v2)
	}
	return v, nil
}

// parseColor reads "#rrggbb" or "#rrggbb,w" where w is the white level.
func parseColor(s string) (color.Color, error) {
	hex, white, found := strings.Cut(s, ",")
	w := 0.0
	if found {
		var err error
		if w, err = strconv.ParseFloat(strings.TrimSpace(white), 64); err != nil {
			return color.Color{}, err
		}
	}
	c, err := color.ParseHex(strings.TrimSpace(hex), w)
	if err != nil {
		return color.Color{}, err
	}
	return c.Clamp(), nil
}

// ParseStringAs parses the input string as a StringParsable type, returning the default
// if an error occurs. It will panic if the type from StringParsable is not implemented.
func ParseStringAs[T StringParsable](v string, def T) T {
	v = strings.Trim(v, `"`) // in case something comes in as if it were a json string

	var parser func(string) (any, error)
	switch any(def).(type) {
	case string:
		parser = func(s string) (any, error) { return s, nil }
	case []string:
		parser = func(s string) (any, error) {
			return envSliceTypeParser(s, func(s string) (string, error) { return s, nil })
		}
	case int:
		parser = func(s string) (any, error) { return strconv.Atoi(s) }
	case time.Duration:
		parser = func(s string) (any, error) { return time.ParseDuration(s) }
	case []time.Duration:
		parser = func(s string) (any, error) {
			return envSliceTypeParser(s, time.ParseDuration)
		}
	case bool:
		parser = func(s string) (any, error) { return strconv.ParseBool(s) }
	case float64:
		parser = func(s string) (any, error) { return strconv.ParseFloat(s, 64) }
	case color.Color:
		parser = func(s string) (any, error) { return parseColor(s) }
	default:
		panic("ParseStringAs got a type we can't handle")
	}

	val, err := parser(v)
	if err != nil {
		return def
	}
	return val.(T)
}
