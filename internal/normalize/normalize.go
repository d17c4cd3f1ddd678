// Package normalize rewrites raw incident rows into canonical categories.
//
// Every field is rewritten by an ordered rule table (see rules.go). The
// functions here are pure: the input slice is never modified.
package normalize

import (
	"sort"

	"shooting_stats/internal/incident"
)

// CaliforniaQuirkLabel is what the historical charts printed for "CA".
const CaliforniaQuirkLabel = "State"

// Options tunes the state rewrite table.
type Options struct {
	// StateNames maps abbreviations to full state names.
	StateNames map[string]string
	// PreserveCAQuirk maps "CA" to "State" instead of "California",
	// reproducing the published charts.
	PreserveCAQuirk bool
}

// DefaultStateNames covers the abbreviations that appear in the dataset.
func DefaultStateNames() map[string]string {
	return map[string]string{
		"CA": "California",
		"LA": "Louisiana",
		"NV": "Nevada",
		"PA": "Pennsylvania",
		"WA": "Washington",
	}
}

// DefaultOptions returns the standard rewrite table with the CA fix applied.
func DefaultOptions() Options {
	return Options{StateNames: DefaultStateNames()}
}

func (o Options) stateNames() map[string]string {
	names := make(map[string]string, len(o.StateNames)+1)
	src := o.StateNames
	if src == nil {
		src = DefaultStateNames()
	}
	for k, v := range src {
		names[k] = v
	}
	if o.PreserveCAQuirk {
		names["CA"] = CaliforniaQuirkLabel
	}
	return names
}

// Normalizer holds the compiled rule tables.
type Normalizer struct {
	gender       Steps
	mentalHealth Steps
	race         Steps
	state        Chain
}

// New compiles the rule tables for opts.
func New(opts Options) *Normalizer {
	return &Normalizer{
		gender:       GenderSteps(),
		mentalHealth: MentalHealthSteps(),
		race:         RaceSteps(),
		state:        StateChain(opts.stateNames()),
	}
}

// Normalize is New(opts).Run(raws) without the audit.
func Normalize(raws []incident.Raw, opts Options) []incident.Incident {
	out, _ := New(opts).Run(raws)
	return out
}

// Renormalize feeds normalized incidents back through the rules. The result
// equals the input.
func Renormalize(incidents []incident.Incident, opts Options) []incident.Incident {
	raws := make([]incident.Raw, len(incidents))
	for i, inc := range incidents {
		raws[i] = inc.ToRaw()
	}
	return Normalize(raws, opts)
}

// Audit counts what the rules did to a batch.
type Audit struct {
	Input   int            `json:"input"`
	Kept    int            `json:"kept"`
	Dropped []int          `json:"dropped_rows,omitempty"`
	Filled  map[string]int `json:"filled"`
	Fired   map[string]int `json:"fired"`
}

// RuleNames returns the fired rule names sorted, for stable logging.
func (a Audit) RuleNames() []string {
	names := make([]string, 0, len(a.Fired))
	for n := range a.Fired {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run applies location filtering, filling and the rule tables, in that order.
func (n *Normalizer) Run(raws []incident.Raw) ([]incident.Incident, Audit) {
	audit := Audit{
		Input:  len(raws),
		Filled: make(map[string]int),
		Fired:  make(map[string]int),
	}
	out := make([]incident.Incident, 0, len(raws))
	for _, raw := range raws {
		if !raw.Location.Present {
			audit.Dropped = append(audit.Dropped, raw.Row)
			continue
		}
		out = append(out, n.one(raw, &audit))
	}
	audit.Kept = len(out)
	return out, audit
}

func (n *Normalizer) one(raw incident.Raw, audit *Audit) incident.Incident {
	fill := func(col string, f incident.Field) string {
		if !f.Present {
			audit.Filled[col]++
		}
		return f.Or(incident.Unknown)
	}
	record := func(fired []string) {
		for _, name := range fired {
			audit.Fired[name]++
		}
	}

	inc := incident.Incident{
		Row:      raw.Row,
		Location: raw.Location.Value,
	}

	inc.Fatalities = count(fill(incident.ColFatalities, raw.Fatalities))
	inc.Injured = count(fill(incident.ColInjured, raw.Injured))
	inc.TotalVictims = count(fill(incident.ColTotalVictims, raw.TotalVictims))

	if date := fill(incident.ColDate, raw.Date); date != incident.Unknown {
		if t, err := incident.ParseDate(date); err == nil {
			inc.Date = t
			inc.DateKnown = true
		}
	}

	var fired []string
	inc.Gender, fired = n.gender.Apply(fill(incident.ColGender, raw.Gender))
	record(fired)
	inc.MentalHealth, fired = n.mentalHealth.Apply(fill(incident.ColMentalHealth, raw.MentalHealth))
	record(fired)
	inc.Race, fired = n.race.Apply(fill(incident.ColRace, raw.Race))
	record(fired)

	var name string
	inc.State, name = n.state.Apply(DeriveState(inc.Location))
	if name != "" {
		audit.Fired[name]++
	}
	return inc
}

// count converts a filled numeric cell. The Unknown sentinel and anything
// unparseable count as zero.
func count(v string) int {
	if v == incident.Unknown {
		return 0
	}
	n, err := incident.ParseCount(v)
	if err != nil {
		return 0
	}
	return n
}
