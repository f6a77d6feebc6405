package allocation

import "github.com/google/uuid"

// Item is one requested line. Duplicate SKUs in a request are summed.
type Item struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// Config controls how far the engine may spread one order.
type Config struct {
	EnableHopping bool `json:"enable_hopping"`
	// MaxHops is the number of locations beyond the first the order may draw from.
	MaxHops      int  `json:"max_hops"`
	SplitAllowed bool `json:"split_allowed"`
}

// Request is the input to Engine.Allocate.
type Request struct {
	OrderID               string     `json:"order_id,omitempty"`
	Items                 []Item     `json:"items"`
	DestinationPostalCode string     `json:"destination_postal_code"`
	PreferredLocation     *uuid.UUID `json:"preferred_location,omitempty"`
	Config                Config     `json:"config"`
}

// Contribution is the quantity reserved at one location.
type Contribution struct {
	LocationID   uuid.UUID `json:"location_id"`
	LocationCode string    `json:"location_code"`
	Quantity     int       `json:"quantity"`
}

// ItemResult is the outcome for one SKU. Allocated equals the sum of contributions and
// Allocated + Shortfall equals Requested.
type ItemResult struct {
	SKU           string         `json:"sku"`
	Requested     int            `json:"requested"`
	Allocated     int            `json:"allocated"`
	Shortfall     int            `json:"shortfall"`
	Contributions []Contribution `json:"contributions"`
}

// Result is the outcome of one allocation call.
type Result struct {
	Items         []ItemResult `json:"items"`
	Success       bool         `json:"success"`
	SplitRequired bool         `json:"split_required"`
	HopsUsed      int          `json:"hops_used"`
}

// Shortfall is the total quantity not allocated across items.
func (r *Result) Shortfall() int {
	n := 0
	for _, it := range r.Items {
		n += it.Shortfall
	}
	return n
}

// Item returns the result for sku, if present.
func (r *Result) Item(sku string) (ItemResult, bool) {
	for _, it := range r.Items {
		if it.SKU == sku {
			return it, true
		}
	}
	return ItemResult{}, false
}
