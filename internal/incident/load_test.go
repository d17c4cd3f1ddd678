package incident

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sample = `Title,Location,Date,Summary,Fatalities,Injured,Total victims,Mental Health Issues,Race,Gender
Las Vegas Strip massacre,"Las Vegas, NV",10/1/2017,x,58,546,604,Unclear,White,M
San Bernardino,"San Bernardino, CA",12/2/2015,x,14,21,35,Unknown,Other,M/F
Unlisted,,1/1/2001,x,1,0,1,No,White,M
Partial,"Aurora, Colorado",,x,12,,70,,,
`

func TestLoadKeepsRequiredColumns(t *testing.T) {
	raws, err := Load(strings.NewReader(sample), LoadOptions{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(raws) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(raws))
	}
	first := raws[0]
	if first.Location.Value != "Las Vegas, NV" || first.TotalVictims.Value != "604" || first.Gender.Value != "M" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.Row != 2 {
		t.Fatalf("expected row 2, got %d", first.Row)
	}
	if raws[2].Location.Present {
		t.Fatalf("expected missing location on row %d", raws[2].Row)
	}
	partial := raws[3]
	if partial.Date.Present || partial.Injured.Present || partial.Race.Present || partial.Gender.Present {
		t.Fatalf("expected empty cells to be absent: %+v", partial)
	}
}

func TestLoadHeaderOnly(t *testing.T) {
	header := strings.Join(Columns, ",")
	raws, err := Load(strings.NewReader(header+"\n"), LoadOptions{})
	if err != nil {
		t.Fatalf("header-only load failed: %v", err)
	}
	if len(raws) != 0 {
		t.Fatalf("expected no rows, got %d", len(raws))
	}
}

func TestLoadMissingColumn(t *testing.T) {
	_, err := Load(strings.NewReader("Location,Date\n\"A, B\",1/1/2000\n"), LoadOptions{})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestLoadFailsOnBadDate(t *testing.T) {
	data := strings.Join(Columns, ",") + "\n\"A, Texas\",not-a-date,1,1,2,Yes,White,M\n"
	_, err := Load(strings.NewReader(data), LoadOptions{})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.Column != ColDate || loadErr.Row != 2 {
		t.Fatalf("unexpected load error: %+v", loadErr)
	}
}

func TestLoadFailsOnBadCount(t *testing.T) {
	data := strings.Join(Columns, ",") + "\n\"A, Texas\",1/1/2000,many,1,2,Yes,White,M\n"
	_, err := Load(strings.NewReader(data), LoadOptions{})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Column != ColFatalities {
		t.Fatalf("expected fatalities LoadError, got %v", err)
	}
}

func TestLoadSemicolonDelimiter(t *testing.T) {
	data := strings.Join(Columns, ";") + "\nA, Texas;1/1/2000;1;1;2;Yes;White;M\n"
	raws, err := Load(strings.NewReader(data), LoadOptions{Delimiter: ';'})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(raws) != 1 || raws[0].Location.Value != "A, Texas" {
		t.Fatalf("unexpected rows: %+v", raws)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	raws, err := LoadFile(path, LoadOptions{})
	if err != nil {
		t.Fatalf("load file failed: %v", err)
	}
	if len(raws) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(raws))
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2012, time.July, 20, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"7/20/2012", "07/20/2012", "2012-07-20", "July 20, 2012", "Jul 20, 2012"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: expected %v, got %v", in, want, got)
		}
	}
	withTime, err := ParseDate("2012-07-20 22:08:00")
	if err != nil || !withTime.Equal(want) {
		t.Fatalf("expected time of day to be dropped, got %v (%v)", withTime, err)
	}
	if _, err := ParseDate("yesterday"); err == nil {
		t.Fatalf("expected error for unparseable date")
	}
}

func TestParseCount(t *testing.T) {
	cases := map[string]int{"5": 5, " 12 ": 12, "1,204": 1204, "3.0": 3}
	for in, want := range cases {
		got, err := ParseCount(in)
		if err != nil || got != want {
			t.Fatalf("parse count %q: expected %d, got %d (%v)", in, want, got, err)
		}
	}
	if _, err := ParseCount("2.5"); err == nil {
		t.Fatalf("expected error for fractional count")
	}
	for _, in := range []string{"-5", "-1.0"} {
		if _, err := ParseCount(in); !errors.Is(err, ErrNegativeCount) {
			t.Fatalf("parse count %q: expected ErrNegativeCount, got %v", in, err)
		}
	}
}

func TestLoadFailsOnNegativeCount(t *testing.T) {
	data := strings.Join(Columns, ",") + "\n\"A, Texas\",1/1/2000,-5,1,2,Yes,White,M\n"
	_, err := Load(strings.NewReader(data), LoadOptions{})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Column != ColFatalities || !errors.Is(err, ErrNegativeCount) {
		t.Fatalf("expected negative fatalities LoadError, got %v", err)
	}
}

func TestLoadErrorReportsPhysicalLine(t *testing.T) {
	data := "Title,Location,Date,Summary,Fatalities,Injured,Total victims,Mental Health Issues,Race,Gender\n" +
		"First,\"A, Texas\",1/1/2000,\"spans\nthree\nlines\",1,1,2,Yes,White,M\n" +
		"Second,\"B, Ohio\",bad-date,x,1,1,2,No,Black,F\n"
	raws, err := Load(strings.NewReader(strings.Replace(data, "bad-date", "2/2/2002", 1)), LoadOptions{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if raws[0].Row != 2 || raws[1].Row != 5 {
		t.Fatalf("expected lines 2 and 5, got %d and %d", raws[0].Row, raws[1].Row)
	}

	_, err = Load(strings.NewReader(data), LoadOptions{})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.Row != 5 || !strings.HasPrefix(loadErr.Error(), "line 5:") {
		t.Fatalf("expected error on line 5, got %v", loadErr)
	}
}

func TestIncidentKeys(t *testing.T) {
	inc := Incident{Date: time.Date(1999, time.April, 20, 0, 0, 0, 0, time.UTC), DateKnown: true}
	if inc.MonthKey() != "04" || inc.YearKey() != "1999" {
		t.Fatalf("unexpected keys %s/%s", inc.MonthKey(), inc.YearKey())
	}
	if (Incident{}).YearKey() != Unknown {
		t.Fatalf("expected Unknown year for missing date")
	}
}
