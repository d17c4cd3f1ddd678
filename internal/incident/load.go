package incident

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/unicode/norm"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// naValues are the cell spellings treated as absent.
var naValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "<nil>"}

// LoadError reports a cell that could not be parsed. Row is the physical
// line the record starts on.
type LoadError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("line %d: column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadOptions controls parsing of the input file.
type LoadOptions struct {
	Delimiter rune
}

// LoadFile opens path and loads it.
func LoadFile(path string, opts LoadOptions) ([]Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()
	return Load(f, opts)
}

// Load reads the delimited file, keeps the required columns and returns one
// Raw per data row. Dates and numeric cells are validated here so a bad
// value fails the load instead of producing a null grouping key later.
func Load(r io.Reader, opts LoadOptions) ([]Raw, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("data file is empty")
	}
	if !bytes.ContainsAny(trimmed, "\r\n") {
		// Header only: gota refuses zero-row frames, check columns by hand.
		return nil, checkHeader(trimmed, delim)
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.WithDelimiter(delim),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("parse csv: %w", df.Err)
	}
	if err := requireColumns(df.Names()); err != nil {
		return nil, err
	}
	df = df.Select(Columns)
	if df.Err != nil {
		return nil, fmt.Errorf("select columns: %w", df.Err)
	}

	cols := make(map[string]series.Series, len(Columns))
	for _, name := range Columns {
		cols[name] = df.Col(name)
	}

	lines := recordLines(data, delim)
	out := make([]Raw, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		row := i + 2
		if i+1 < len(lines) {
			row = lines[i+1]
		}
		raw := Raw{
			Row:          row,
			Location:     cell(cols[ColLocation], i),
			Date:         cell(cols[ColDate], i),
			Fatalities:   cell(cols[ColFatalities], i),
			Injured:      cell(cols[ColInjured], i),
			TotalVictims: cell(cols[ColTotalVictims], i),
			MentalHealth: cell(cols[ColMentalHealth], i),
			Race:         cell(cols[ColRace], i),
			Gender:       cell(cols[ColGender], i),
		}
		if err := validate(raw); err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// recordLines returns the line each record starts on, header first. Quoted
// cells may span lines, so record index and line number differ. A read error
// returns what was gathered and callers fall back to index arithmetic.
func recordLines(data []byte, delim rune) []int {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	var lines []int
	for {
		if _, err := reader.Read(); err != nil {
			return lines
		}
		line, _ := reader.FieldPos(0)
		lines = append(lines, line)
	}
}

func cell(s series.Series, i int) Field {
	el := s.Elem(i)
	if el.IsNA() {
		return Field{}
	}
	v := cleanText(el.String())
	if isNA(v) {
		return Field{}
	}
	return Value(v)
}

// cleanText folds Unicode variants so equal labels compare equal.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func isNA(v string) bool {
	for _, na := range naValues {
		if v == na {
			return true
		}
	}
	return false
}

func validate(raw Raw) error {
	if raw.Date.Present && raw.Date.Value != Unknown {
		if _, err := ParseDate(raw.Date.Value); err != nil {
			return &LoadError{Row: raw.Row, Column: ColDate, Value: raw.Date.Value, Err: err}
		}
	}
	numeric := []struct {
		col string
		f   Field
	}{
		{ColFatalities, raw.Fatalities},
		{ColInjured, raw.Injured},
		{ColTotalVictims, raw.TotalVictims},
	}
	for _, n := range numeric {
		if !n.f.Present || n.f.Value == Unknown {
			continue
		}
		if _, err := ParseCount(n.f.Value); err != nil {
			return &LoadError{Row: raw.Row, Column: n.col, Value: n.f.Value, Err: err}
		}
	}
	return nil
}

func requireColumns(names []string) error {
	have := make(map[string]struct{}, len(names))
	for _, n := range names {
		have[n] = struct{}{}
	}
	var missing []string
	for _, c := range Columns {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func checkHeader(line []byte, delim rune) error {
	reader := csv.NewReader(bytes.NewReader(line))
	reader.Comma = delim
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	return requireColumns(header)
}
