package geocode

import (
	"context"
	"strings"
)

// State is one entry of the built-in state table.
type State struct {
	Code   string
	Name   string
	Center Point
}

// States lists the 50 states and DC with approximate geographic centers.
var States = []State{
	{"AL", "Alabama", Point{32.806671, -86.791130}},
	{"AK", "Alaska", Point{61.370716, -152.404419}},
	{"AZ", "Arizona", Point{33.729759, -111.431221}},
	{"AR", "Arkansas", Point{34.969704, -92.373123}},
	{"CA", "California", Point{36.116203, -119.681564}},
	{"CO", "Colorado", Point{39.059811, -105.311104}},
	{"CT", "Connecticut", Point{41.597782, -72.755371}},
	{"DE", "Delaware", Point{39.318523, -75.507141}},
	{"DC", "District of Columbia", Point{38.897438, -77.026817}},
	{"FL", "Florida", Point{27.766279, -81.686783}},
	{"GA", "Georgia", Point{33.040619, -83.643074}},
	{"HI", "Hawaii", Point{21.094318, -157.498337}},
	{"ID", "Idaho", Point{44.240459, -114.478828}},
	{"IL", "Illinois", Point{40.349457, -88.986137}},
	{"IN", "Indiana", Point{39.849426, -86.258278}},
	{"IA", "Iowa", Point{42.011539, -93.210526}},
	{"KS", "Kansas", Point{38.526600, -96.726486}},
	{"KY", "Kentucky", Point{37.668140, -84.670067}},
	{"LA", "Louisiana", Point{31.169546, -91.867805}},
	{"ME", "Maine", Point{44.693947, -69.381927}},
	{"MD", "Maryland", Point{39.063946, -76.802101}},
	{"MA", "Massachusetts", Point{42.230171, -71.530106}},
	{"MI", "Michigan", Point{43.326618, -84.536095}},
	{"MN", "Minnesota", Point{45.694454, -93.900192}},
	{"MS", "Mississippi", Point{32.741646, -89.678696}},
	{"MO", "Missouri", Point{38.456085, -92.288368}},
	{"MT", "Montana", Point{46.921925, -110.454353}},
	{"NE", "Nebraska", Point{41.125370, -98.268082}},
	{"NV", "Nevada", Point{38.313515, -117.055374}},
	{"NH", "New Hampshire", Point{43.452492, -71.563896}},
	{"NJ", "New Jersey", Point{40.298904, -74.521011}},
	{"NM", "New Mexico", Point{34.840515, -106.248482}},
	{"NY", "New York", Point{42.165726, -74.948051}},
	{"NC", "North Carolina", Point{35.630066, -79.806419}},
	{"ND", "North Dakota", Point{47.528912, -99.784012}},
	{"OH", "Ohio", Point{40.388783, -82.764915}},
	{"OK", "Oklahoma", Point{35.565342, -96.928917}},
	{"OR", "Oregon", Point{44.572021, -122.070938}},
	{"PA", "Pennsylvania", Point{40.590752, -77.209755}},
	{"RI", "Rhode Island", Point{41.680893, -71.511780}},
	{"SC", "South Carolina", Point{33.856892, -80.945007}},
	{"SD", "South Dakota", Point{44.299782, -99.438828}},
	{"TN", "Tennessee", Point{35.747845, -86.692345}},
	{"TX", "Texas", Point{31.054487, -97.563461}},
	{"UT", "Utah", Point{40.150032, -111.862434}},
	{"VT", "Vermont", Point{44.045876, -72.710686}},
	{"VA", "Virginia", Point{37.769337, -78.169968}},
	{"WA", "Washington", Point{47.400902, -121.490494}},
	{"WV", "West Virginia", Point{38.491226, -80.954453}},
	{"WI", "Wisconsin", Point{44.268543, -89.616508}},
	{"WY", "Wyoming", Point{42.755966, -107.302490}},
}

var stateIndex = func() map[string]State {
	idx := make(map[string]State, 2*len(States))
	for _, s := range States {
		idx[strings.ToLower(s.Code)] = s
		idx[strings.ToLower(s.Name)] = s
	}
	idx["d.c."] = idx["dc"]
	idx["washington d.c."] = idx["dc"]
	idx["washington, d.c."] = idx["dc"]
	return idx
}()

// LookupState finds a state by full name or two-letter code, ignoring case.
func LookupState(name string) (State, bool) {
	s, ok := stateIndex[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Offline answers from the built-in state table.
type Offline struct{}

// NewOffline returns the table-backed geocoder.
func NewOffline() *Offline { return &Offline{} }

func (o *Offline) Lookup(ctx context.Context, name string) (Point, error) {
	if err := ctx.Err(); err != nil {
		return Point{}, err
	}
	s, ok := LookupState(name)
	if !ok {
		return Point{}, ErrNotFound
	}
	return s.Center, nil
}
