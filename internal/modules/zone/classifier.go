package zone

import "strings"

// Options configures a Classifier. Zero values select the built-in tables.
type Options struct {
	States      StateTable
	MetroDigits []byte
}

// Classifier maps postal code/state pairs to route classes. It is safe for concurrent use.
type Classifier struct {
	states StateTable
	metro  map[byte]struct{}
}

// NewClassifier resolves opts once and returns a ready Classifier.
func NewClassifier(opts Options) *Classifier {
	states := make(StateTable, len(opts.States))
	src := opts.States
	if len(src) == 0 {
		src = DefaultStateTable()
	}
	for k, v := range src {
		states[normaliseState(k)] = v
	}

	digits := opts.MetroDigits
	if len(digits) == 0 {
		digits = DefaultMetroDigits
	}
	metro := make(map[byte]struct{}, len(digits))
	for _, d := range digits {
		metro[d] = struct{}{}
	}

	return &Classifier{states: states, metro: metro}
}

// ZoneOf returns the zone for state, or ZoneCentral when the state is unknown.
func (c *Classifier) ZoneOf(state string) Zone {
	if z, ok := c.states[normaliseState(state)]; ok {
		return z
	}
	return ZoneCentral
}

// Classify returns the route class for origin → destination.
//
// Precedence is LOCAL, ZONAL, METRO, NATIONAL: a same-state pair is LOCAL even when
// its postal codes sit under different metro digits.
func (c *Classifier) Classify(origin, destination Endpoint) RouteClass {
	return c.Route(origin, destination).Class
}

// Route classifies the pair and reports both zones.
func (c *Classifier) Route(origin, destination Endpoint) Route {
	r := Route{
		OriginZone:      c.ZoneOf(origin.State),
		DestinationZone: c.ZoneOf(destination.State),
	}

	os, ds := normaliseState(origin.State), normaliseState(destination.State)
	switch {
	case os != "" && os == ds:
		r.Class = RouteLocal
	case r.OriginZone == r.DestinationZone:
		r.Class = RouteZonal
	case c.isMetro(origin.PostalCode) && c.isMetro(destination.PostalCode):
		r.Class = RouteMetro
	default:
		r.Class = RouteNational
	}
	return r
}

func (c *Classifier) isMetro(postalCode string) bool {
	pc := strings.TrimSpace(postalCode)
	if pc == "" {
		return false
	}
	_, ok := c.metro[pc[0]]
	return ok
}
