package routing

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
)

// Coverage describes how far the own fleet reaches for one pair.
type Coverage struct {
	OriginHub      *Hub
	DestinationHub *Hub
	// Full is true when the fleet serves both ends.
	Full bool
	// Handoff is where a partner can take over when coverage is partial.
	Handoff *Hub
}

// FleetCoverage is the port onto the own-fleet network.
type FleetCoverage interface {
	Coverage(ctx context.Context, origin, destination zone.Endpoint) (Coverage, error)
}

// NetworkHub is a hub with the postal prefixes its vehicles serve.
type NetworkHub struct {
	Hub
	ServedPrefixes []string
	// Gateway hubs accept freight for partner handoff.
	Gateway bool
}

// StaticNetwork is a FleetCoverage over a fixed hub list.
type StaticNetwork struct {
	hubs []NetworkHub
}

var _ FleetCoverage = (*StaticNetwork)(nil)

func NewStaticNetwork(hubs []NetworkHub) *StaticNetwork {
	sorted := slices.Clone(hubs)
	slices.SortFunc(sorted, func(a, b NetworkHub) int { return cmp.Compare(a.Code, b.Code) })
	return &StaticNetwork{hubs: sorted}
}

func (n *StaticNetwork) Coverage(_ context.Context, origin, destination zone.Endpoint) (Coverage, error) {
	var cov Coverage
	cov.OriginHub = n.serving(origin.PostalCode)
	cov.DestinationHub = n.serving(destination.PostalCode)
	cov.Full = cov.OriginHub != nil && cov.DestinationHub != nil
	if cov.OriginHub != nil && !cov.Full {
		cov.Handoff = n.gatewayNearest(destination.PostalCode)
	}
	return cov, nil
}

// serving returns the hub with the longest served prefix of postal, ties by code.
func (n *StaticNetwork) serving(postal string) *Hub {
	postal = strings.TrimSpace(postal)
	var best *Hub
	bestLen := 0
	for i := range n.hubs {
		for _, p := range n.hubs[i].ServedPrefixes {
			if p != "" && strings.HasPrefix(postal, p) && len(p) > bestLen {
				best, bestLen = &n.hubs[i].Hub, len(p)
			}
		}
	}
	return best
}

func (n *StaticNetwork) gatewayNearest(postal string) *Hub {
	var best *Hub
	bestLen := -1
	for i := range n.hubs {
		if !n.hubs[i].Gateway {
			continue
		}
		if l := commonPrefix(n.hubs[i].PostalCode, postal); l > bestLen {
			best, bestLen = &n.hubs[i].Hub, l
		}
	}
	return best
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// NoFleet reports no coverage anywhere, so every plan goes to partners.
type NoFleet struct{}

func (NoFleet) Coverage(context.Context, zone.Endpoint, zone.Endpoint) (Coverage, error) {
	return Coverage{}, nil
}
