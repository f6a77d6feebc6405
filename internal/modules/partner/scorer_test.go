package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(code string, rate int64, days int, reliability float64) Candidate {
	p := &Partner{
		ID:           uuid.New(),
		Code:         code,
		Name:         code,
		Capabilities: Capabilities{COD: true},
		Reliability:  reliability,
		IsActive:     true,
	}
	return Candidate{
		Partner: p,
		Serviceability: &Serviceability{
			PartnerID:   p.ID,
			BaseRate:    decimal.NewFromInt(rate),
			RatePerKg:   decimal.Zero,
			TransitDays: days,
		},
	}
}

func TestScore_CheaperSlowerLosesToFasterReliable(t *testing.T) {
	s := NewScorer(ScalingMaxRelative)
	ranking, ok := s.Score(ScoreRequest{
		WeightKg:   decimal.NewFromInt(1),
		Weights:    Weights{Cost: 0.4, Speed: 0.3, Reliability: 0.3},
		Candidates: []Candidate{candidate("A", 50, 3, 0.9), candidate("B", 40, 5, 0.7)},
	})
	require.True(t, ok)
	assert.Equal(t, "A", ranking.Best.PartnerCode)
	require.Len(t, ranking.Ranked, 2)
	assert.InDelta(t, 0.39, ranking.Ranked[0].FinalScore, 1e-9)
	assert.InDelta(t, 0.29, ranking.Ranked[1].FinalScore, 1e-9)
}

func TestScore_MinMaxScaling(t *testing.T) {
	s := NewScorer(ScalingMinMax)
	ranking, ok := s.Score(ScoreRequest{
		WeightKg:   decimal.NewFromInt(1),
		Weights:    Weights{Cost: 0.4, Speed: 0.3, Reliability: 0.3},
		Candidates: []Candidate{candidate("A", 50, 3, 0.9), candidate("B", 40, 5, 0.7)},
	})
	require.True(t, ok)
	assert.Equal(t, "B", ranking.Best.PartnerCode)
	assert.InDelta(t, 0.61, ranking.Ranked[0].FinalScore, 1e-9)
	assert.InDelta(t, 0.57, ranking.Ranked[1].FinalScore, 1e-9)
}

func TestScore_EmptyCandidatesIsNoResult(t *testing.T) {
	_, ok := NewScorer(ScalingMaxRelative).Score(ScoreRequest{})
	assert.False(t, ok)
}

func TestScore_Exclusions(t *testing.T) {
	inactive := candidate("INACTIVE", 10, 1, 1)
	inactive.Partner.IsActive = false
	noCOD := candidate("NOCOD", 10, 1, 1)
	noCOD.Partner.Capabilities.COD = false
	noLane := candidate("NOLANE", 10, 1, 1)
	noLane.Serviceability = nil
	ok1 := candidate("OK", 80, 4, 0.6)

	ranking, ok := NewScorer(ScalingMaxRelative).Score(ScoreRequest{
		WeightKg:     decimal.NewFromInt(2),
		Requirements: Requirements{COD: true, CODAmount: decimal.NewFromInt(500)},
		Candidates:   []Candidate{inactive, noCOD, noLane, ok1},
	})
	require.True(t, ok)
	assert.Equal(t, "OK", ranking.Best.PartnerCode)
	assert.Len(t, ranking.Ranked, 1)
	assert.Len(t, ranking.Excluded, 3)

	_, ok = NewScorer(ScalingMaxRelative).Score(ScoreRequest{
		Requirements: Requirements{COD: true},
		Candidates:   []Candidate{inactive, noCOD},
	})
	assert.False(t, ok)
}

func TestScore_TieBreakByCode(t *testing.T) {
	ranking, ok := NewScorer(ScalingMaxRelative).Score(ScoreRequest{
		WeightKg:   decimal.NewFromInt(1),
		Candidates: []Candidate{candidate("BETA", 40, 2, 0.8), candidate("ALPHA", 40, 2, 0.8)},
	})
	require.True(t, ok)
	assert.Equal(t, "ALPHA", ranking.Ranked[0].PartnerCode)
	assert.Equal(t, "BETA", ranking.Ranked[1].PartnerCode)
}

func TestScore_TieBreakByRate(t *testing.T) {
	// Cost-free weights leave only reliability, equal for both, so rate decides.
	ranking, ok := NewScorer(ScalingMaxRelative).Score(ScoreRequest{
		WeightKg:   decimal.NewFromInt(1),
		Weights:    Weights{Reliability: 1},
		Candidates: []Candidate{candidate("A", 60, 2, 0.8), candidate("Z", 45, 2, 0.8)},
	})
	require.True(t, ok)
	assert.Equal(t, "Z", ranking.Best.PartnerCode)
}

func TestNormaliseWeights(t *testing.T) {
	assert.Equal(t, DefaultWeights, normaliseWeights(Weights{}))
	assert.Equal(t, DefaultWeights, normaliseWeights(Weights{Cost: -1, Speed: 0.5}))

	w := normaliseWeights(Weights{Cost: 2, Speed: 1, Reliability: 1})
	assert.InDelta(t, 0.5, w.Cost, 1e-9)
	assert.InDelta(t, 0.25, w.Speed, 1e-9)
	assert.InDelta(t, 0.25, w.Reliability, 1e-9)
}

func TestQuote_IncludesCODCharge(t *testing.T) {
	sv := Serviceability{
		BaseRate:  decimal.NewFromInt(40),
		RatePerKg: decimal.NewFromInt(10),
		COD:       CODCharge{Flat: decimal.NewFromInt(30), Percent: decimal.NewFromInt(2)},
	}
	weight := decimal.RequireFromString("2.5")

	assert.True(t, decimal.NewFromInt(65).Equal(sv.Quote(weight, false, decimal.NewFromInt(2000))))
	// 2% of 1000 is below the flat fee.
	assert.True(t, decimal.NewFromInt(95).Equal(sv.Quote(weight, true, decimal.NewFromInt(1000))))
	assert.True(t, decimal.NewFromInt(105).Equal(sv.Quote(weight, true, decimal.NewFromInt(2000))))
}

func TestReliabilityFromStats(t *testing.T) {
	assert.Equal(t, DefaultReliability, ReliabilityFromStats(DeliveryStats{}))
	assert.InDelta(t, 0.8, ReliabilityFromStats(DeliveryStats{Delivered: 90, OnTime: 80, NDR: 10}), 1e-9)
	assert.Equal(t, 1.0, ReliabilityFromStats(DeliveryStats{Delivered: 5, OnTime: 50}))
}
