package allocation

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/inventory"
)

// rankLocations orders warehouses for a destination: the preferred location first, then by
// longest shared postal prefix, numeric postal distance, priority and id.
func rankLocations(warehouses []*inventory.Warehouse, destination string, preferred *uuid.UUID) ([]*inventory.Warehouse, bool) {
	destination = strings.TrimSpace(destination)
	ranked := slices.Clone(warehouses)
	slices.SortFunc(ranked, func(a, b *inventory.Warehouse) int {
		if c := cmp.Compare(sharedPrefix(b.PostalCode, destination), sharedPrefix(a.PostalCode, destination)); c != 0 {
			return c
		}
		if c := cmp.Compare(postalDistance(a.PostalCode, destination), postalDistance(b.PostalCode, destination)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	if preferred == nil {
		return ranked, true
	}
	i := slices.IndexFunc(ranked, func(w *inventory.Warehouse) bool { return w.ID == *preferred })
	if i < 0 {
		return nil, false
	}
	p := ranked[i]
	ranked = slices.Delete(ranked, i, i+1)
	return slices.Insert(ranked, 0, p), true
}

func sharedPrefix(a, b string) int {
	a = strings.TrimSpace(a)
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

const unknownDistance = int64(1) << 62

func postalDistance(a, b string) int64 {
	x, errA := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	if errA != nil || errB != nil {
		return unknownDistance
	}
	if x > y {
		return x - y
	}
	return y - x
}
