package partner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// ── Partners ─────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreatePartner(ctx context.Context, p *Partner) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO partners (id, code, name, supports_cod, supports_reverse, supports_hyperlocal, reliability, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Code, p.Name, p.Capabilities.COD, p.Capabilities.ReversePickup,
		p.Capabilities.Hyperlocal, p.Reliability, p.IsActive)
	if err != nil {
		return fmt.Errorf("create partner: %w", err)
	}
	return nil
}

const partnerColumns = `id, code, name, supports_cod, supports_reverse, supports_hyperlocal, reliability, is_active, created_at, updated_at`

func (r *postgresRepo) GetPartnerByID(ctx context.Context, id string) (*Partner, error) {
	return r.scanPartner(r.db.QueryRowContext(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE id=$1`, id))
}

func (r *postgresRepo) GetPartnerByCode(ctx context.Context, code string) (*Partner, error) {
	return r.scanPartner(r.db.QueryRowContext(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE code=$1`, code))
}

func (r *postgresRepo) ListPartners(ctx context.Context) ([]*Partner, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+partnerColumns+` FROM partners ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var partners []*Partner
	for rows.Next() {
		p, err := r.scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

func (r *postgresRepo) UpdateReliability(ctx context.Context, id string, reliability float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE partners SET reliability=$1, updated_at=$2 WHERE id=$3`, reliability, time.Now(), id)
	return affectedOne(res, err)
}

func (r *postgresRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE partners SET is_active=$1, updated_at=$2 WHERE id=$3`, active, time.Now(), id)
	return affectedOne(res, err)
}

// ── Serviceability ───────────────────────────────────────────────────────────

func (r *postgresRepo) UpsertServiceability(ctx context.Context, s *Serviceability) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO partner_serviceability
		    (id, partner_id, origin_postal_code, destination_postal_code, base_rate, rate_per_kg,
		     cod_flat, cod_percent, transit_days)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (partner_id, origin_postal_code, destination_postal_code) DO UPDATE
		SET base_rate=EXCLUDED.base_rate, rate_per_kg=EXCLUDED.rate_per_kg, cod_flat=EXCLUDED.cod_flat,
		    cod_percent=EXCLUDED.cod_percent, transit_days=EXCLUDED.transit_days`,
		s.ID, s.PartnerID, s.OriginPostalCode, s.DestinationPostalCode, s.BaseRate, s.RatePerKg,
		s.COD.Flat, s.COD.Percent, s.TransitDays)
	if err != nil {
		return fmt.Errorf("upsert serviceability: %w", err)
	}
	return nil
}

func (r *postgresRepo) ListCandidates(ctx context.Context, originPostal, destinationPostal string) ([]Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.code, p.name, p.supports_cod, p.supports_reverse, p.supports_hyperlocal,
		       p.reliability, p.is_active, p.created_at, p.updated_at,
		       s.id, s.origin_postal_code, s.destination_postal_code, s.base_rate, s.rate_per_kg,
		       s.cod_flat, s.cod_percent, s.transit_days, s.created_at
		FROM partner_serviceability s
		JOIN partners p ON p.id = s.partner_id
		WHERE s.origin_postal_code=$1 AND s.destination_postal_code=$2
		ORDER BY p.code`, originPostal, destinationPostal)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		p, s := &Partner{}, &Serviceability{}
		if err := rows.Scan(
			&p.ID, &p.Code, &p.Name, &p.Capabilities.COD, &p.Capabilities.ReversePickup,
			&p.Capabilities.Hyperlocal, &p.Reliability, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
			&s.ID, &s.OriginPostalCode, &s.DestinationPostalCode, &s.BaseRate, &s.RatePerKg,
			&s.COD.Flat, &s.COD.Percent, &s.TransitDays, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		s.PartnerID = p.ID
		out = append(out, Candidate{Partner: p, Serviceability: s})
	}
	return out, rows.Err()
}

// ── scanners ─────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresRepo) scanPartner(row rowScanner) (*Partner, error) {
	p := &Partner{}
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Capabilities.COD, &p.Capabilities.ReversePickup,
		&p.Capabilities.Hyperlocal, &p.Reliability, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
