package zone

import "strings"

// RouteClass is the classification of an origin/destination pair.
type RouteClass string

const (
	RouteLocal    RouteClass = "LOCAL"    // same state
	RouteZonal    RouteClass = "ZONAL"    // same zone, different states
	RouteMetro    RouteClass = "METRO"    // metro to metro across zones
	RouteNational RouteClass = "NATIONAL" // everything else
	RouteUnknown  RouteClass = "UNKNOWN"
)

// RouteClasses lists the known classes in table order.
var RouteClasses = []RouteClass{RouteLocal, RouteZonal, RouteMetro, RouteNational}

// ParseRouteClass maps s onto the closed set, falling back to RouteUnknown.
func ParseRouteClass(s string) RouteClass {
	switch c := RouteClass(strings.ToUpper(strings.TrimSpace(s))); c {
	case RouteLocal, RouteZonal, RouteMetro, RouteNational:
		return c
	default:
		return RouteUnknown
	}
}

// Zone groups states for ZONAL classification.
type Zone string

const (
	ZoneNorth     Zone = "NORTH"
	ZoneSouth     Zone = "SOUTH"
	ZoneEast      Zone = "EAST"
	ZoneWest      Zone = "WEST"
	ZoneNortheast Zone = "NORTHEAST"
	// ZoneCentral is also the catch-all for states missing from the table.
	ZoneCentral Zone = "CENTRAL"
)

// Endpoint is one side of a route.
type Endpoint struct {
	PostalCode string `json:"postal_code"`
	State      string `json:"state"`
}

// Route is the full classification of a pair, including the key used for service-level lookups.
type Route struct {
	Class           RouteClass `json:"class"`
	OriginZone      Zone       `json:"origin_zone"`
	DestinationZone Zone       `json:"destination_zone"`
}

// SLAKey is the service-level table lookup key for the route, e.g. "ZONAL:SOUTH>SOUTH".
func (r Route) SLAKey() string {
	return string(r.Class) + ":" + string(r.OriginZone) + ">" + string(r.DestinationZone)
}

// StateTable maps a normalised (upper-case) state name to its zone.
type StateTable map[string]Zone

// DefaultStateTable returns the built-in state to zone mapping.
func DefaultStateTable() StateTable {
	t := StateTable{}
	add := func(z Zone, states ...string) {
		for _, s := range states {
			t[s] = z
		}
	}
	add(ZoneNorth, "DELHI", "HARYANA", "PUNJAB", "HIMACHAL PRADESH", "JAMMU AND KASHMIR",
		"LADAKH", "CHANDIGARH", "UTTARAKHAND", "UTTAR PRADESH", "RAJASTHAN")
	add(ZoneSouth, "KARNATAKA", "TAMIL NADU", "KERALA", "ANDHRA PRADESH", "TELANGANA",
		"PUDUCHERRY", "LAKSHADWEEP")
	add(ZoneEast, "WEST BENGAL", "ODISHA", "BIHAR", "JHARKHAND", "ANDAMAN AND NICOBAR ISLANDS")
	add(ZoneWest, "MAHARASHTRA", "GUJARAT", "GOA", "DADRA AND NAGAR HAVELI AND DAMAN AND DIU")
	add(ZoneNortheast, "ASSAM", "ARUNACHAL PRADESH", "MANIPUR", "MEGHALAYA", "MIZORAM",
		"NAGALAND", "SIKKIM", "TRIPURA")
	add(ZoneCentral, "MADHYA PRADESH", "CHHATTISGARH")
	return t
}

// DefaultMetroDigits are the PIN first-digits treated as metro regions.
var DefaultMetroDigits = []byte{'1', '4', '5', '6', '7'}

func normaliseState(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
