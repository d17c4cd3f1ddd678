package incident

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Source column headers.
const (
	ColLocation     = "Location"
	ColDate         = "Date"
	ColFatalities   = "Fatalities"
	ColInjured      = "Injured"
	ColTotalVictims = "Total victims"
	ColMentalHealth = "Mental Health Issues"
	ColRace         = "Race"
	ColGender       = "Gender"
)

// Columns lists the headers the loader requires, in output order.
var Columns = []string{
	ColLocation, ColDate, ColFatalities, ColInjured, ColTotalVictims,
	ColMentalHealth, ColRace, ColGender,
}

const (
	// Unknown is the fill value for any missing field.
	Unknown = "Unknown"
	// OtherState is used when no state can be derived from Location.
	OtherState = "Other"
)

// Field is a single cell. Present is false for empty or NA cells.
type Field struct {
	Value   string
	Present bool
}

// Value builds a present field.
func Value(s string) Field {
	return Field{Value: s, Present: true}
}

// Or returns the cell value, or fallback when the cell is absent.
func (f Field) Or(fallback string) string {
	if !f.Present {
		return fallback
	}
	return f.Value
}

// Raw is one input row before normalization. Row is the 1-based line in the
// source file (the header is line 1).
type Raw struct {
	Row          int
	Location     Field
	Date         Field
	Fatalities   Field
	Injured      Field
	TotalVictims Field
	MentalHealth Field
	Race         Field
	Gender       Field
}

// Incident is a normalized row. It is never mutated after normalization.
type Incident struct {
	Row          int       `json:"row"`
	Location     string    `json:"location"`
	State        string    `json:"state"`
	Date         time.Time `json:"date"`
	DateKnown    bool      `json:"date_known"`
	Fatalities   int       `json:"fatalities"`
	Injured      int       `json:"injured"`
	TotalVictims int       `json:"total_victims"`
	MentalHealth string    `json:"mental_health_issues"`
	Race         string    `json:"race"`
	Gender       string    `json:"gender"`
}

// MonthKey returns the zero-padded month ("01".."12"), or Unknown.
func (i Incident) MonthKey() string {
	if !i.DateKnown {
		return Unknown
	}
	return i.Date.Format("01")
}

// YearKey returns the four-digit year, or Unknown.
func (i Incident) YearKey() string {
	if !i.DateKnown {
		return Unknown
	}
	return i.Date.Format("2006")
}

// DateString renders the date the way it is written back to CSV.
func (i Incident) DateString() string {
	if !i.DateKnown {
		return Unknown
	}
	return i.Date.Format(isoLayout)
}

// ToRaw converts a normalized incident back into a raw row so the
// normalizer can be re-applied to its own output.
func (i Incident) ToRaw() Raw {
	raw := Raw{
		Row:          i.Row,
		Location:     Value(i.Location),
		Fatalities:   Value(strconv.Itoa(i.Fatalities)),
		Injured:      Value(strconv.Itoa(i.Injured)),
		TotalVictims: Value(strconv.Itoa(i.TotalVictims)),
		MentalHealth: Value(i.MentalHealth),
		Race:         Value(i.Race),
		Gender:       Value(i.Gender),
	}
	if i.DateKnown {
		raw.Date = Value(i.Date.Format(isoLayout))
	}
	return raw
}

// CSVRow renders the incident in Columns order plus the derived State.
func (i Incident) CSVRow() []string {
	return []string{
		i.Location,
		i.DateString(),
		strconv.Itoa(i.Fatalities),
		strconv.Itoa(i.Injured),
		strconv.Itoa(i.TotalVictims),
		i.MentalHealth,
		i.Race,
		i.Gender,
		i.State,
	}
}

// CSVHeader matches CSVRow.
func CSVHeader() []string {
	return append(append([]string{}, Columns...), "State")
}

const isoLayout = "2006-01-02"

// ErrNegativeCount rejects counts below zero.
var ErrNegativeCount = errors.New("count is negative")

var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	isoLayout,
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2-Jan-06",
	"1/2/06",
}

// ParseDate accepts the date layouts seen in published versions of the
// dataset and returns the calendar date; any time of day is dropped.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ParseCount parses a non-negative count. Thousands separators and a
// trailing ".0" (float-typed exports) are tolerated.
func ParseCount(value string) (int, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	n, err := strconv.Atoi(value)
	if err != nil {
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil {
			return 0, ferr
		}
		if f != float64(int(f)) {
			return 0, strconv.ErrSyntax
		}
		n = int(f)
	}
	if n < 0 {
		return 0, ErrNegativeCount
	}
	return n, nil
}
