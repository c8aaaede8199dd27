package report

import (
	"strconv"

	"github.com/star/skywatch/internal/catalog"
	"github.com/star/skywatch/internal/tle"
)

// SearchEntry is one catalog match.
type SearchEntry struct {
	ID          string `json:"id"`
	NORADID     int    `json:"norad_id"`
	Name        string `json:"name"`
	TLE1        string `json:"tle1"`
	TLE2        string `json:"tle2"`
	Epoch       string `json:"epoch,omitempty"`
	ObjectType  string `json:"object_type,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Search is the catalog search document.
type Search struct {
	Success    bool          `json:"success"`
	Satellites []SearchEntry `json:"satellites"`
	Total      int           `json:"total"`
	Query      string        `json:"query"`
	SearchType string        `json:"search_type"`
}

// NewSearch shapes search matches for q.
func NewSearch(q catalog.Query, entries []tle.TLEEntry) Search {
	s := Search{
		Success:    true,
		Satellites: make([]SearchEntry, 0, len(entries)),
		Total:      len(entries),
		Query:      q.Name,
		SearchType: "Name",
	}
	if q.NORADID != 0 {
		s.Query = strconv.Itoa(q.NORADID)
		s.SearchType = "NORAD ID"
	}
	for _, e := range entries {
		se := SearchEntry{
			ID:          e.ID,
			NORADID:     e.NORADID,
			Name:        e.Name,
			TLE1:        e.Line1,
			TLE2:        e.Line2,
			ObjectType:  e.ObjectType,
			CountryCode: e.CountryCode,
		}
		if !e.Epoch.IsZero() {
			se.Epoch = FormatUTC(e.Epoch)
		}
		s.Satellites = append(s.Satellites, se)
	}
	return s
}
