package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cassiomorais/courts/internal/domain/court"
	domainErrors "github.com/cassiomorais/courts/internal/domain/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CourtRepository implements court.Repository using PostgreSQL.
type CourtRepository struct {
	pool *pgxpool.Pool
}

// NewCourtRepository creates a new CourtRepository.
func NewCourtRepository(pool *pgxpool.Pool) *CourtRepository {
	return &CourtRepository{pool: pool}
}

func (r *CourtRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func scanCourt(s scanner) (*court.Court, error) {
	c := &court.Court{}
	if err := s.Scan(&c.ID, &c.TypeID, &c.TypeName, &c.Name, &c.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrCourtNotFound
		}
		return nil, fmt.Errorf("scan court: %w", err)
	}
	return c, nil
}

func (r *CourtRepository) Create(ctx context.Context, c *court.Court) error {
	err := r.db(ctx).QueryRow(ctx,
		`WITH ins AS (
		   INSERT INTO courts (id_type, name, description) VALUES ($1, $2, $3)
		   RETURNING id_court, id_type
		 )
		 SELECT ins.id_court, ct.type_name FROM ins JOIN court_types ct ON ct.id_type = ins.id_type`,
		c.TypeID, c.Name, c.Description,
	).Scan(&c.ID, &c.TypeName)
	if err != nil {
		if isForeignKeyViolation(err, "courts_id_type_fkey") {
			return domainErrors.ErrCourtTypeNotFound
		}
		return classify("insert court", err)
	}
	return nil
}

func (r *CourtRepository) GetByID(ctx context.Context, id int64) (*court.Court, error) {
	return scanCourt(r.db(ctx).QueryRow(ctx,
		`SELECT c.id_court, c.id_type, ct.type_name, c.name, c.description
		 FROM courts c JOIN court_types ct ON ct.id_type = c.id_type
		 WHERE c.id_court = $1`, id))
}

func (r *CourtRepository) List(ctx context.Context, typeID *int64) ([]*court.Court, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT c.id_court, c.id_type, ct.type_name, c.name, c.description
		 FROM courts c JOIN court_types ct ON ct.id_type = c.id_type
		 WHERE ($1::bigint IS NULL OR c.id_type = $1::bigint)
		 ORDER BY c.id_court`, typeID)
	if err != nil {
		return nil, classify("list courts", err)
	}
	defer rows.Close()

	var courts []*court.Court
	for rows.Next() {
		c, err := scanCourt(rows)
		if err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func (r *CourtRepository) ListTypes(ctx context.Context) ([]*court.Type, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT id_type, type_name FROM court_types ORDER BY id_type`)
	if err != nil {
		return nil, classify("list court types", err)
	}
	types, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*court.Type, error) {
		t := &court.Type{}
		err := row.Scan(&t.ID, &t.Name)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan court types: %w", err)
	}
	return types, nil
}
