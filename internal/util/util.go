package util

import (
	"os"
)

// Getenv returns the environment variable key parsed as T, or def when it is
// unset or does not parse.
func Getenv[T StringParsable](key string, def T) T {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return ParseStringAs(v, def)
}
