package partner

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Scaling selects how rates and transit days are normalised within one candidate set.
type Scaling string

const (
	// ScalingMaxRelative divides by the set maximum. It is the default: under min-max,
	// B(40, 5d, 0.7) outranks A(50, 3d, 0.9) at weights 0.4/0.3/0.3.
	ScalingMaxRelative Scaling = "max"
	// ScalingMinMax maps the set minimum to 0 and the maximum to 1.
	ScalingMinMax Scaling = "minmax"
)

// ParseScaling maps s onto a known scaling, defaulting to ScalingMaxRelative.
func ParseScaling(s string) Scaling {
	if Scaling(s) == ScalingMinMax {
		return ScalingMinMax
	}
	return ScalingMaxRelative
}

// ScoreRequest is the input to Scorer.Score.
type ScoreRequest struct {
	WeightKg     decimal.Decimal
	Requirements Requirements
	Weights      Weights
	Candidates   []Candidate
}

// Scorer ranks partner candidates for one shipment. It holds no mutable state.
type Scorer struct {
	scaling Scaling
}

func NewScorer(scaling Scaling) *Scorer {
	if scaling != ScalingMinMax {
		scaling = ScalingMaxRelative
	}
	return &Scorer{scaling: scaling}
}

// Score filters the candidates, scores the survivors and ranks them best first.
// It returns false when no candidate survives filtering.
func (s *Scorer) Score(req ScoreRequest) (Ranking, bool) {
	w := normaliseWeights(req.Weights)
	out := Ranking{Weights: w}

	var eligible []Scored
	for _, c := range req.Candidates {
		if reason := exclude(c, req.Requirements); reason != "" {
			code := ""
			if c.Partner != nil {
				code = c.Partner.Code
			}
			out.Excluded = append(out.Excluded, Exclusion{PartnerCode: code, Reason: reason})
			continue
		}
		eligible = append(eligible, Scored{
			PartnerID:        c.Partner.ID,
			PartnerCode:      c.Partner.Code,
			PartnerName:      c.Partner.Name,
			QuotedRate:       c.Serviceability.Quote(req.WeightKg, req.Requirements.COD, req.Requirements.CODAmount),
			TransitDays:      c.Serviceability.TransitDays,
			ReliabilityScore: clamp01(c.Partner.Reliability),
		})
	}
	if len(eligible) == 0 {
		return out, false
	}

	rates := make([]float64, len(eligible))
	days := make([]float64, len(eligible))
	for i, e := range eligible {
		rates[i] = e.QuotedRate.InexactFloat64()
		days[i] = float64(e.TransitDays)
	}
	for i := range eligible {
		e := &eligible[i]
		e.CostScore = 1 - s.normalise(rates[i], rates)
		e.SpeedScore = 1 - s.normalise(days[i], days)
		e.FinalScore = w.Cost*e.CostScore + w.Speed*e.SpeedScore + w.Reliability*e.ReliabilityScore
	}

	slices.SortFunc(eligible, func(a, b Scored) int {
		if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
			return c
		}
		if c := a.QuotedRate.Cmp(b.QuotedRate); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TransitDays, b.TransitDays); c != 0 {
			return c
		}
		return cmp.Compare(a.PartnerCode, b.PartnerCode)
	})

	out.Ranked = eligible
	out.Best = eligible[0]
	return out, true
}

func (s *Scorer) normalise(x float64, set []float64) float64 {
	lo, hi := slices.Min(set), slices.Max(set)
	switch s.scaling {
	case ScalingMinMax:
		if hi == lo {
			return 0
		}
		return (x - lo) / (hi - lo)
	default:
		if hi <= 0 {
			return 0
		}
		return x / hi
	}
}

func exclude(c Candidate, req Requirements) string {
	switch {
	case c.Partner == nil:
		return "missing partner"
	case !c.Partner.IsActive:
		return "inactive"
	case c.Serviceability == nil:
		return "lane not serviceable"
	case req.COD && !c.Partner.Capabilities.COD:
		return "cod not supported"
	case req.ReversePickup && !c.Partner.Capabilities.ReversePickup:
		return "reverse pickup not supported"
	case req.Hyperlocal && !c.Partner.Capabilities.Hyperlocal:
		return "hyperlocal not supported"
	case c.Serviceability.TransitDays < 0:
		return fmt.Sprintf("invalid transit days %d", c.Serviceability.TransitDays)
	}
	return ""
}

func normaliseWeights(w Weights) Weights {
	sum := w.Cost + w.Speed + w.Reliability
	if sum <= 0 || w.Cost < 0 || w.Speed < 0 || w.Reliability < 0 {
		return DefaultWeights
	}
	return Weights{Cost: w.Cost / sum, Speed: w.Speed / sum, Reliability: w.Reliability / sum}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// DefaultReliability is assumed for a partner with no delivery history.
const DefaultReliability = 0.5

// ReliabilityFromStats is the on-time share of all delivery attempts, where NDRs count as
// attempts that were not on time.
func ReliabilityFromStats(stats DeliveryStats) float64 {
	attempts := stats.Delivered + stats.NDR
	if attempts <= 0 {
		return DefaultReliability
	}
	onTime := min(max(stats.OnTime, 0), stats.Delivered)
	return clamp01(float64(onTime) / float64(attempts))
}
