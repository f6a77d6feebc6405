package partner

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/fulfillment-engine/internal/modules/zone"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
	"github.com/georgemunganga/fulfillment-engine/internal/platform/observability"
)

// Shipment describes what needs carrying on one lane.
type Shipment struct {
	Origin       zone.Endpoint   `json:"origin"`
	Destination  zone.Endpoint   `json:"destination"`
	WeightKg     decimal.Decimal `json:"weight_kg"`
	Requirements Requirements    `json:"requirements"`
	Weights      Weights         `json:"weights"`
}

// Recommendation is the ranked answer for one shipment.
type Recommendation struct {
	RouteClass zone.RouteClass `json:"route_class"`
	Found      bool            `json:"found"`
	Ranking    Ranking         `json:"ranking"`
}

// Service defines partner registry and selection logic.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Partner, error)
	GetPartner(ctx context.Context, id string) (*Partner, error)
	ListPartners(ctx context.Context) ([]*Partner, error)
	SetActive(ctx context.Context, id string, active bool) (*Partner, error)
	AddServiceability(ctx context.Context, partnerID string, req ServiceabilityRequest) (*Serviceability, error)
	// RecordDeliveryStats recomputes a partner's reliability from its delivery history.
	RecordDeliveryStats(ctx context.Context, id string, stats DeliveryStats) (*Partner, error)

	// Recommend scores every partner serving the exact postal pair. A shipment nobody can
	// carry is a normal outcome (Found=false), not an error.
	Recommend(ctx context.Context, shipment Shipment) (*Recommendation, error)
}

// Options configures the service. Scorer and Classifier default to built-ins.
type Options struct {
	Scorer     *Scorer
	Classifier *zone.Classifier
	Logger     *zap.Logger
}

type service struct {
	repo       Repository
	scorer     *Scorer
	classifier *zone.Classifier
	logger     *zap.Logger
}

func NewService(repo Repository, opts Options) Service {
	scorer := opts.Scorer
	if scorer == nil {
		scorer = NewScorer(ScalingMaxRelative)
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = zone.NewClassifier(zone.Options{})
	}
	return &service{
		repo:       repo,
		scorer:     scorer,
		classifier: classifier,
		logger:     observability.OrNop(opts.Logger).Named("partner"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Partner, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, apperr.InvalidInput("partner.Register", "code is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.InvalidInput("partner.Register", "name is required")
	}
	if _, err := s.repo.GetPartnerByCode(ctx, code); err == nil {
		return nil, apperr.New("partner.Register", apperr.CodeInvalidState, "partner %s already registered", code)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	reliability := DefaultReliability
	if req.Reliability != nil {
		if *req.Reliability < 0 || *req.Reliability > 1 {
			return nil, apperr.InvalidInput("partner.Register", "reliability must be within [0, 1]")
		}
		reliability = *req.Reliability
	}

	p := &Partner{
		ID:           uuid.New(),
		Code:         code,
		Name:         strings.TrimSpace(req.Name),
		Capabilities: req.Capabilities,
		Reliability:  reliability,
		IsActive:     true,
	}
	if err := s.repo.CreatePartner(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("partner registered", zap.String("partner_code", p.Code), zap.String("partner_id", p.ID.String()))
	return p, nil
}

func (s *service) GetPartner(ctx context.Context, id string) (*Partner, error) {
	p, err := s.repo.GetPartnerByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Wrap("partner.GetPartner", apperr.CodeNotFound, err, id)
	}
	return p, err
}

func (s *service) ListPartners(ctx context.Context) ([]*Partner, error) {
	return s.repo.ListPartners(ctx)
}

func (s *service) SetActive(ctx context.Context, id string, active bool) (*Partner, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Wrap("partner.SetActive", apperr.CodeNotFound, err, id)
		}
		return nil, err
	}
	return s.GetPartner(ctx, id)
}

func (s *service) AddServiceability(ctx context.Context, partnerID string, req ServiceabilityRequest) (*Serviceability, error) {
	p, err := s.GetPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	origin, dest := strings.TrimSpace(req.OriginPostalCode), strings.TrimSpace(req.DestinationPostalCode)
	switch {
	case origin == "" || dest == "":
		return nil, apperr.InvalidInput("partner.AddServiceability", "origin and destination postal codes are required")
	case req.BaseRate.IsNegative() || req.RatePerKg.IsNegative() || req.CODFlat.IsNegative() || req.CODPercent.IsNegative():
		return nil, apperr.InvalidInput("partner.AddServiceability", "rates must not be negative")
	case req.TransitDays < 0:
		return nil, apperr.InvalidInput("partner.AddServiceability", "transit_days must not be negative")
	}

	sv := &Serviceability{
		ID:                    uuid.New(),
		PartnerID:             p.ID,
		OriginPostalCode:      origin,
		DestinationPostalCode: dest,
		BaseRate:              req.BaseRate,
		RatePerKg:             req.RatePerKg,
		COD:                   CODCharge{Flat: req.CODFlat, Percent: req.CODPercent},
		TransitDays:           req.TransitDays,
	}
	if err := s.repo.UpsertServiceability(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *service) RecordDeliveryStats(ctx context.Context, id string, stats DeliveryStats) (*Partner, error) {
	if stats.Delivered < 0 || stats.OnTime < 0 || stats.NDR < 0 {
		return nil, apperr.InvalidInput("partner.RecordDeliveryStats", "counts must not be negative")
	}
	if err := s.repo.UpdateReliability(ctx, id, ReliabilityFromStats(stats)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Wrap("partner.RecordDeliveryStats", apperr.CodeNotFound, err, id)
		}
		return nil, err
	}
	return s.GetPartner(ctx, id)
}

func (s *service) Recommend(ctx context.Context, shipment Shipment) (*Recommendation, error) {
	if shipment.WeightKg.IsNegative() {
		return nil, apperr.InvalidInput("partner.Recommend", "weight must not be negative")
	}
	candidates, err := s.repo.ListCandidates(ctx,
		strings.TrimSpace(shipment.Origin.PostalCode), strings.TrimSpace(shipment.Destination.PostalCode))
	if err != nil {
		return nil, err
	}

	ranking, ok := s.scorer.Score(ScoreRequest{
		WeightKg:     shipment.WeightKg,
		Requirements: shipment.Requirements,
		Weights:      shipment.Weights,
		Candidates:   candidates,
	})
	rec := &Recommendation{
		RouteClass: s.classifier.Classify(shipment.Origin, shipment.Destination),
		Found:      ok,
		Ranking:    ranking,
	}
	if ok {
		s.logger.Debug("partner recommended",
			zap.String("partner_code", ranking.Best.PartnerCode),
			zap.Float64("score", ranking.Best.FinalScore),
			zap.Int("candidates", len(candidates)),
		)
	}
	return rec, nil
}
