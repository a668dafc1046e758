package enrichment

import (
	"strconv"
	"strings"
)

// UnknownYear marks a record whose release year is absent or unparsable.
const UnknownYear = 0

// UnknownGenres is shown when the source lists no genres.
const UnknownGenres = "Unknown"

// Record is the display and filter metadata fetched for a single item.
type Record struct {
	PosterURL   string
	IMDbID      string
	ReleaseDate string
	Year        int
	Genres      string
}

// New builds a record, deriving Year from releaseDate and the genre summary from names.
func New(posterURL, imdbID, releaseDate string, genres []string) Record {
	return Record{
		PosterURL:   posterURL,
		IMDbID:      imdbID,
		ReleaseDate: releaseDate,
		Year:        ParseYear(releaseDate),
		Genres:      JoinGenres(genres),
	}
}

// ParseYear takes the first four characters of an ISO-prefixed date and parses them.
// Empty, short or non-numeric input yields UnknownYear.
func ParseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return UnknownYear
	}
	y, err := strconv.Atoi(releaseDate[:4])
	if err != nil || y < 0 {
		return UnknownYear
	}
	return y
}

// JoinGenres renders genre names as a comma separated summary.
func JoinGenres(names []string) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return UnknownGenres
	}
	return strings.Join(out, ", ")
}

// HasYear reports whether the release year is known.
func (r Record) HasYear() bool { return r.Year != UnknownYear }
