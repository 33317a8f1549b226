package store

import (
	"fmt"
	"regexp"
	"sync"
)

var patternCache sync.Map // pattern string -> *regexp.Regexp

// regexpMatch implements the SQL function regexp(pattern, value) that
// SQLite calls for "value REGEXP pattern". NULL values never match.
func regexpMatch(pattern, value any) (bool, error) {
	if pattern == nil || value == nil {
		return false, nil
	}
	re, err := compilePattern(fmt.Sprint(textOf(pattern)))
	if err != nil {
		return false, err
	}
	return re.MatchString(fmt.Sprint(textOf(value))), nil
}

func textOf(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("regexp %q: %w", pattern, err)
	}
	patternCache.Store(pattern, re)
	return re, nil
}
