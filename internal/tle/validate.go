package tle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is wrapped by every element-set format error.
var ErrMalformed = errors.New("malformed element set")

// ValidateLines checks the fixed element-set format: both lines exactly 69
// characters after trimming, line 1 starting with "1 " and line 2 with "2 ".
//
// go-satellite calls log.Fatal on some malformed input, so every line pair is
// checked here before it reaches the propagator.
func ValidateLines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != LineLength {
		return fmt.Errorf("%w: line1 length %d, expected %d", ErrMalformed, len(line1), LineLength)
	}
	if len(line2) != LineLength {
		return fmt.Errorf("%w: line2 length %d, expected %d", ErrMalformed, len(line2), LineLength)
	}
	if !strings.HasPrefix(line1, "1 ") {
		return fmt.Errorf("%w: line1 must start with \"1 \"", ErrMalformed)
	}
	if !strings.HasPrefix(line2, "2 ") {
		return fmt.Errorf("%w: line2 must start with \"2 \"", ErrMalformed)
	}
	return nil
}

// FilterValid splits entries into those with a well-formed element set and
// those without. Order is preserved in both slices.
func FilterValid(entries []TLEEntry) (valid, rejected []TLEEntry) {
	valid = make([]TLEEntry, 0, len(entries))
	for _, e := range entries {
		if ValidateLines(e.Line1, e.Line2) != nil {
			rejected = append(rejected, e)
			continue
		}
		valid = append(valid, e)
	}
	return valid, rejected
}
