package postgres

import (
	"context"
	"fmt"

	"github.com/cassiomorais/courts/internal/domain/report"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository runs the fixed read-only reports.
type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func (r *ReportRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *ReportRepository) BookingsByStatus(ctx context.Context) ([]report.StatusCount, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM bookings GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, classify("bookings by status", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.StatusCount, error) {
		var s report.StatusCount
		err := row.Scan(&s.Status, &s.Count)
		return s, err
	})
}

func (r *ReportRepository) CourtUsage(ctx context.Context) ([]report.CourtUsage, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT c.id_court, c.name, COUNT(b.id_booking)
		 FROM courts c
		 LEFT JOIN schedules s ON s.id_court = c.id_court
		 LEFT JOIN booking_details bd ON bd.id_schedule = s.id_schedule
		 LEFT JOIN bookings b ON b.id_booking = bd.id_booking AND b.status <> 'cancelled'
		 GROUP BY c.id_court, c.name
		 ORDER BY 3 DESC, c.id_court`)
	if err != nil {
		return nil, classify("court usage", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.CourtUsage, error) {
		var u report.CourtUsage
		err := row.Scan(&u.CourtID, &u.CourtName, &u.TimesRented)
		return u, err
	})
}

func (r *ReportRepository) BookingsByDay(ctx context.Context, rng report.DateRange) ([]report.DayCount, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT s.schedule_date, COUNT(DISTINCT bd.id_booking)
		 FROM schedules s
		 JOIN booking_details bd ON bd.id_schedule = s.id_schedule
		 JOIN bookings b ON b.id_booking = bd.id_booking
		 WHERE s.schedule_date BETWEEN $1::date AND $2::date AND b.status <> 'cancelled'
		 GROUP BY s.schedule_date
		 ORDER BY s.schedule_date`, rng.From, rng.To)
	if err != nil {
		return nil, classify("bookings by day", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.DayCount, error) {
		var d report.DayCount
		err := row.Scan(&d.Date, &d.Count)
		return d, err
	})
}

func (r *ReportRepository) RevenueByCourt(ctx context.Context, rng report.DateRange) ([]report.CourtRevenue, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT c.id_court, c.name, COALESCE(SUM(s.price), 0)::text
		 FROM courts c
		 JOIN schedules s ON s.id_court = c.id_court
		 JOIN booking_details bd ON bd.id_schedule = s.id_schedule
		 JOIN bookings b ON b.id_booking = bd.id_booking
		 WHERE b.status <> 'cancelled' AND s.schedule_date BETWEEN $1::date AND $2::date
		 GROUP BY c.id_court, c.name
		 ORDER BY SUM(s.price) DESC, c.id_court`, rng.From, rng.To)
	if err != nil {
		return nil, classify("revenue by court", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.CourtRevenue, error) {
		var (
			cr      report.CourtRevenue
			revenue string
		)
		if err := row.Scan(&cr.CourtID, &cr.CourtName, &revenue); err != nil {
			return cr, err
		}
		d, err := numericToDecimal(revenue)
		if err != nil {
			return cr, fmt.Errorf("parse revenue: %w", err)
		}
		cr.Revenue = d
		return cr, nil
	})
}

func (r *ReportRepository) TopUsers(ctx context.Context, limit int) ([]report.UserBookings, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT u.id_user, u.name, u.last_name, COUNT(b.id_booking)
		 FROM users u
		 JOIN bookings b ON b.id_user = u.id_user
		 GROUP BY u.id_user, u.name, u.last_name
		 ORDER BY 4 DESC, u.id_user
		 LIMIT $1`, limit)
	if err != nil {
		return nil, classify("top users", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.UserBookings, error) {
		var u report.UserBookings
		err := row.Scan(&u.UserID, &u.Name, &u.LastName, &u.Bookings)
		return u, err
	})
}

// heldSlots joins each non-cancelled booking to the slots it holds.
const heldSlots = `
	FROM schedules s
	JOIN booking_details bd ON bd.id_schedule = s.id_schedule
	JOIN bookings b ON b.id_booking = bd.id_booking AND b.status <> 'cancelled'`

func scanPeriodRevenue(row pgx.CollectableRow) (report.PeriodRevenue, error) {
	var (
		pr      report.PeriodRevenue
		revenue string
	)
	if err := row.Scan(&pr.Period, &revenue); err != nil {
		return pr, err
	}
	d, err := numericToDecimal(revenue)
	if err != nil {
		return pr, fmt.Errorf("parse revenue: %w", err)
	}
	pr.Revenue = d
	return pr, nil
}

func (r *ReportRepository) RevenueByMonth(ctx context.Context, rng report.DateRange) ([]report.PeriodRevenue, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT date_trunc('month', s.schedule_date)::date, SUM(s.price)::text`+heldSlots+`
		 WHERE s.schedule_date BETWEEN $1::date AND $2::date
		 GROUP BY 1
		 ORDER BY 1`, rng.From, rng.To)
	if err != nil {
		return nil, classify("revenue by month", err)
	}
	return pgx.CollectRows(rows, scanPeriodRevenue)
}

func (r *ReportRepository) RevenueByDay(ctx context.Context, rng report.DateRange) ([]report.PeriodRevenue, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT s.schedule_date, SUM(s.price)::text`+heldSlots+`
		 WHERE s.schedule_date BETWEEN $1::date AND $2::date
		 GROUP BY s.schedule_date
		 ORDER BY s.schedule_date`, rng.From, rng.To)
	if err != nil {
		return nil, classify("revenue by day", err)
	}
	return pgx.CollectRows(rows, scanPeriodRevenue)
}

func (r *ReportRepository) RevenueByCourtType(ctx context.Context) ([]report.CourtTypeRevenue, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT ct.id_type, ct.type_name, SUM(s.price)::text`+heldSlots+`
		 JOIN courts c ON c.id_court = s.id_court
		 JOIN court_types ct ON ct.id_type = c.id_type
		 GROUP BY ct.id_type, ct.type_name
		 ORDER BY SUM(s.price) DESC, ct.id_type`)
	if err != nil {
		return nil, classify("revenue by court type", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.CourtTypeRevenue, error) {
		var (
			tr      report.CourtTypeRevenue
			revenue string
		)
		if err := row.Scan(&tr.TypeID, &tr.TypeName, &revenue); err != nil {
			return tr, err
		}
		d, err := numericToDecimal(revenue)
		if err != nil {
			return tr, fmt.Errorf("parse revenue: %w", err)
		}
		tr.Revenue = d
		return tr, nil
	})
}

func (r *ReportRepository) RevenueByUser(ctx context.Context) ([]report.UserRevenue, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT u.id_user, u.name, u.last_name, SUM(s.price)::text`+heldSlots+`
		 JOIN users u ON u.id_user = b.id_user
		 GROUP BY u.id_user, u.name, u.last_name
		 ORDER BY SUM(s.price) DESC, u.id_user`)
	if err != nil {
		return nil, classify("revenue by user", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.UserRevenue, error) {
		var (
			ur      report.UserRevenue
			revenue string
		)
		if err := row.Scan(&ur.UserID, &ur.Name, &ur.LastName, &revenue); err != nil {
			return ur, err
		}
		d, err := numericToDecimal(revenue)
		if err != nil {
			return ur, fmt.Errorf("parse revenue: %w", err)
		}
		ur.Revenue = d
		return ur, nil
	})
}

func (r *ReportRepository) BookingsByHour(ctx context.Context) ([]report.HourCount, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT to_char(s.start_time, 'HH24:MI'), COUNT(DISTINCT b.id_booking)`+heldSlots+`
		 GROUP BY s.start_time
		 ORDER BY s.start_time`)
	if err != nil {
		return nil, classify("bookings by hour", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.HourCount, error) {
		var h report.HourCount
		err := row.Scan(&h.StartTime, &h.Count)
		return h, err
	})
}

// BookingsByCourtType lists every court type, including ones never booked.
func (r *ReportRepository) BookingsByCourtType(ctx context.Context) ([]report.CourtTypeCount, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT ct.id_type, ct.type_name, COUNT(DISTINCT b.id_booking)
		 FROM court_types ct
		 LEFT JOIN courts c ON c.id_type = ct.id_type
		 LEFT JOIN schedules s ON s.id_court = c.id_court
		 LEFT JOIN booking_details bd ON bd.id_schedule = s.id_schedule
		 LEFT JOIN bookings b ON b.id_booking = bd.id_booking AND b.status <> 'cancelled'
		 GROUP BY ct.id_type, ct.type_name
		 ORDER BY 3 DESC, ct.id_type`)
	if err != nil {
		return nil, classify("bookings by court type", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.CourtTypeCount, error) {
		var c report.CourtTypeCount
		err := row.Scan(&c.TypeID, &c.TypeName, &c.Bookings)
		return c, err
	})
}
