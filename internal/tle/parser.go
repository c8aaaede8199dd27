package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads 3-line NORAD TLE format from r and returns parsed entries.
// Each entry's ID is its NORAD catalog number. Malformed entries are skipped
// with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]TLEEntry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var entries []TLEEntry
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Resynchronise on the next line.
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		if len(line1) < 32 {
			logger.Warn("skipping TLE entry with short line1", "name", name)
			i += 3
			continue
		}

		noradStr := strings.TrimSpace(line1[2:7])
		noradID, err := strconv.Atoi(noradStr)
		if err != nil {
			logger.Warn("skipping TLE entry with invalid NORAD ID", "norad_str", noradStr, "name", name)
			i += 3
			continue
		}

		epochStr := strings.TrimSpace(line1[18:32])
		epoch, err := parseEpoch(epochStr)
		if err != nil {
			logger.Warn("skipping TLE entry with invalid epoch", "epoch_str", epochStr, "name", name, "error", err)
			i += 3
			continue
		}

		entries = append(entries, TLEEntry{
			ID:      strconv.Itoa(noradID),
			NORADID: noradID,
			Name:    strings.TrimSpace(strings.TrimPrefix(name, "0 ")),
			Epoch:   epoch,
			Line1:   line1,
			Line2:   line2,
		})
		i += 3
	}

	return entries, nil
}

// ParseElements decodes the mean elements from a validated line pair.
func ParseElements(line1, line2 string) (Elements, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if err := ValidateLines(line1, line2); err != nil {
		return Elements{}, err
	}

	var (
		el  Elements
		err error
	)

	if el.Epoch, err = parseEpoch(strings.TrimSpace(line1[18:32])); err != nil {
		return Elements{}, err
	}
	if el.MeanMotionDot, err = parseField(line1, 33, 43, "mean motion dot"); err != nil {
		return Elements{}, err
	}
	if el.MeanMotionDDot, err = parseImpliedDecimal(line1[44:52]); err != nil {
		return Elements{}, fmt.Errorf("%w: mean motion ddot: %v", ErrMalformed, err)
	}
	if el.BStar, err = parseImpliedDecimal(line1[53:61]); err != nil {
		return Elements{}, fmt.Errorf("%w: bstar: %v", ErrMalformed, err)
	}

	if el.InclinationDeg, err = parseField(line2, 8, 16, "inclination"); err != nil {
		return Elements{}, err
	}
	if el.RAANDeg, err = parseField(line2, 17, 25, "raan"); err != nil {
		return Elements{}, err
	}
	ecc, err := strconv.ParseFloat("0."+strings.TrimSpace(line2[26:33]), 64)
	if err != nil {
		return Elements{}, fmt.Errorf("%w: eccentricity %q", ErrMalformed, line2[26:33])
	}
	el.Eccentricity = ecc
	if el.ArgPerigeeDeg, err = parseField(line2, 34, 42, "argument of perigee"); err != nil {
		return Elements{}, err
	}
	if el.MeanAnomalyDeg, err = parseField(line2, 43, 51, "mean anomaly"); err != nil {
		return Elements{}, err
	}
	if el.MeanMotionRevDay, err = parseField(line2, 52, 63, "mean motion"); err != nil {
		return Elements{}, err
	}
	if rev := strings.TrimSpace(line2[63:68]); rev != "" {
		if n, err := strconv.Atoi(rev); err == nil {
			el.RevolutionAtEpoch = n
		}
	}

	return el, nil
}

func parseField(line string, from, to int, name string) (float64, error) {
	raw := strings.TrimSpace(line[from:to])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformed, name, raw)
	}
	return v, nil
}

// parseImpliedDecimal decodes the TLE exponent notation, e.g. " 10270-3"
// means 0.10270e-3 and "-11606-4" means -0.11606e-4.
func parseImpliedDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	sign := ""
	if s[0] == '-' || s[0] == '+' {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}
	if len(s) < 3 {
		return 0, fmt.Errorf("value %q too short", s)
	}

	mantissa := s[:len(s)-2]
	exponent := s[len(s)-2:]
	return strconv.ParseFloat(sign+"0."+mantissa+"e"+exponent, 64)
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}

// EntryFromLines builds an entry from a caller-supplied name and line pair.
// The catalog number and epoch are filled in when the lines carry them; the
// lines themselves are not validated here.
func EntryFromLines(name, line1, line2 string) TLEEntry {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	e := TLEEntry{Name: strings.TrimSpace(name), Line1: line1, Line2: line2}

	if len(line1) >= 7 {
		if id, err := strconv.Atoi(strings.TrimSpace(line1[2:7])); err == nil {
			e.NORADID = id
			e.ID = strconv.Itoa(id)
		}
	}
	if len(line1) >= 32 {
		if epoch, err := parseEpoch(strings.TrimSpace(line1[18:32])); err == nil {
			e.Epoch = epoch
		}
	}
	if e.ID == "" {
		e.ID = e.Name
	}
	return e
}
