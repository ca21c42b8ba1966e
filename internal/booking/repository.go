package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jvillarreal-dev/booking-core/internal/timerange"
)

// Repository is the reservation store contract. CreateHold is the only
// authoritative write-path conflict check: it relies on the datastore's
// atomic range-exclusion constraint, never on check-then-insert. The
// read-only overlap queries share the same "active" definition but may
// observe slightly stale state next to a concurrent writer.
type Repository interface {
	CreateHold(ctx context.Context, req *TimeSlotRequest, actor Actor, holdExpiresAt time.Time) (*Booking, error)
	Confirm(ctx context.Context, id string) (*Booking, error)
	Cancel(ctx context.Context, id string, reason string) (*Booking, error)
	Complete(ctx context.Context, id string) (*Booking, error)
	MarkNoShow(ctx context.Context, id string) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	HasConflicts(ctx context.Context, resourceID string, period timerange.TimeRange) (bool, error)
	FindActiveBookings(ctx context.Context, resourceID string, period timerange.TimeRange) ([]*Booking, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const bookingColumns = `id, resource_id, lower(period), upper(period), status, hold_expires_at, actor, service_ref, metadata, created_at, updated_at`

// reapExpiredHoldsSQL cancels overlapping HELD rows whose expiry has already
// passed, so they drop out of the exclusion constraint's predicate before the
// insert below is checked. It must run in the same transaction as the insert
// and strictly before it: the constraint check does not see an expired row as
// gone until the UPDATE has been applied. The reap and insert are deliberately
// two statements rather than one data-modifying CTE, because Postgres gives
// no ordering guarantee between an unreferenced CTE sub-statement and the
// main query.
const reapExpiredHoldsSQL = `
UPDATE public.bookings
SET status = 'CANCELLED',
    hold_expires_at = NULL,
    metadata = metadata || jsonb_build_object('cancellation_reason', 'hold_expired'),
    updated_at = now()
WHERE resource_id = $1
  AND status = 'HELD'
  AND hold_expires_at <= now()
  AND period && tstzrange($2, $3, '[)')`

// insertHoldSQL relies on the partial GiST exclusion constraint on
// (resource_id, period) over HELD/CONFIRMED rows (see scripts/schema.sql) to
// reject genuine overlaps, which makes two concurrent inserts for the same
// period resolve to exactly one winner without any application-level locking.
const insertHoldSQL = `
INSERT INTO public.bookings (resource_id, period, status, hold_expires_at, actor, service_ref, metadata)
VALUES ($1, tstzrange($2, $3, '[)'), 'HELD', $4, $5, $6, $7)
RETURNING id, created_at, updated_at`

func (r *pgxRepository) CreateHold(ctx context.Context, req *TimeSlotRequest, actor Actor, holdExpiresAt time.Time) (*Booking, error) {
	b := &Booking{
		ResourceID:    req.ResourceID,
		Period:        req.Period,
		Status:        StatusHeld,
		HoldExpiresAt: &holdExpiresAt,
		Actor:         actor,
		Metadata:      holdMetadata(req),
	}
	if ref, ok := req.Metadata["service_ref"].(string); ok {
		b.ServiceRef = ref
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin hold transaction failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, reapExpiredHoldsSQL,
		req.ResourceID, req.Period.Start, req.Period.End,
	); err != nil {
		return nil, fmt.Errorf("reap expired holds failed: %w", err)
	}

	err = tx.QueryRow(ctx, insertHoldSQL,
		req.ResourceID, req.Period.Start, req.Period.End,
		holdExpiresAt, b.Actor, b.ServiceRef, b.Metadata,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.ExclusionViolation:
				return nil, ErrTimeConflict
			case pgerrcode.ForeignKeyViolation:
				return nil, ErrResourceNotFound
			}
		}
		return nil, fmt.Errorf("create hold failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit hold failed: %w", err)
	}

	return b, nil
}

// holdMetadata merges the caller's request metadata with the stamped request
// type. service_ref is promoted to its own column, not duplicated here.
func holdMetadata(req *TimeSlotRequest) map[string]any {
	metadata := make(map[string]any, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	delete(metadata, "service_ref")
	metadata["request_type"] = string(req.Type)
	return metadata
}

// confirmSQL is conditioned on the current row state: only a PENDING row or a
// HELD row with an unexpired hold can be confirmed.
const confirmSQL = `
UPDATE public.bookings
SET status = 'CONFIRMED', hold_expires_at = NULL, updated_at = now()
WHERE id = $1
  AND (status = 'PENDING' OR (status = 'HELD' AND hold_expires_at > now()))
RETURNING ` + bookingColumns

func (r *pgxRepository) Confirm(ctx context.Context, id string) (*Booking, error) {
	b, err := r.scanRow(r.pool.QueryRow(ctx, confirmSQL, id))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("confirm booking failed: %w", err)
	}

	// No row matched: either the id is unknown or the state was wrong.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	reason := "not in a confirmable state"
	if current.Status == StatusHeld {
		reason = "hold has expired"
	}
	return nil, &InvalidTransitionError{From: current.Status, To: StatusConfirmed, Reason: reason}
}

const cancelSQL = `
UPDATE public.bookings
SET status = 'CANCELLED',
    hold_expires_at = NULL,
    metadata = metadata || jsonb_build_object('cancellation_reason', $2::text),
    updated_at = now()
WHERE id = $1
  AND status NOT IN ('CANCELLED', 'COMPLETED', 'NO_SHOW')
RETURNING ` + bookingColumns

func (r *pgxRepository) Cancel(ctx context.Context, id string, reason string) (*Booking, error) {
	b, err := r.scanRow(r.pool.QueryRow(ctx, cancelSQL, id, reason))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cancel booking failed: %w", err)
	}

	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &InvalidTransitionError{From: current.Status, To: StatusCancelled, Reason: "already terminal"}
}

func (r *pgxRepository) Complete(ctx context.Context, id string) (*Booking, error) {
	return r.fromConfirmed(ctx, id, StatusCompleted)
}

func (r *pgxRepository) MarkNoShow(ctx context.Context, id string) (*Booking, error) {
	return r.fromConfirmed(ctx, id, StatusNoShow)
}

const fromConfirmedSQL = `
UPDATE public.bookings
SET status = $2, updated_at = now()
WHERE id = $1 AND status = 'CONFIRMED'
RETURNING ` + bookingColumns

func (r *pgxRepository) fromConfirmed(ctx context.Context, id string, target Status) (*Booking, error) {
	b, err := r.scanRow(r.pool.QueryRow(ctx, fromConfirmedSQL, id, target))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("mark booking %s failed: %w", target, err)
	}

	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &InvalidTransitionError{From: current.Status, To: target}
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns).
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := r.scanRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(bookingColumns + ", count(*) OVER() AS total_count").
		From("public.bookings")

	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"resource_id": filter.ResourceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.ActorID != "" {
		query = query.Where(squirrel.Expr("actor->>'id' = ?", filter.ActorID))
	}
	// Window intersection: booking period overlaps [From, To).
	if filter.From != nil {
		query = query.Where(squirrel.Expr("upper(period) > ?", filter.From))
	}
	if filter.To != nil {
		query = query.Where(squirrel.Expr("lower(period) < ?", filter.To))
	}

	orderBy := "lower(period)"
	switch filter.SortBy {
	case "created_at", "updated_at", "status":
		orderBy = filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int

	for rows.Next() {
		b := &Booking{}
		if err := rows.Scan(
			&b.ID, &b.ResourceID, &b.Period.Start, &b.Period.End, &b.Status,
			&b.HoldExpiresAt, &b.Actor, &b.ServiceRef, &b.Metadata,
			&b.CreatedAt, &b.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		if err := b.NormalizeHold(); err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}

	return bookings, total, nil
}

// activePredicate is the single definition of "blocks the resource":
// CONFIRMED, or HELD with an unexpired hold. It must stay aligned with the
// WHERE clause of the exclusion constraint's self-heal in createHoldSQL.
var activePredicate = squirrel.Or{
	squirrel.Eq{"status": string(StatusConfirmed)},
	squirrel.And{
		squirrel.Eq{"status": string(StatusHeld)},
		squirrel.Expr("hold_expires_at > now()"),
	},
}

func (r *pgxRepository) HasConflicts(ctx context.Context, resourceID string, period timerange.TimeRange) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sub, args, err := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Expr("period && tstzrange(?, ?, '[)')", period.Start, period.End)).
		Where(activePredicate).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build conflict check query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("conflict check failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) FindActiveBookings(ctx context.Context, resourceID string, period timerange.TimeRange) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select(bookingColumns).
		From("public.bookings").
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Expr("period && tstzrange(?, ?, '[)')", period.Start, period.End)).
		Where(activePredicate).
		OrderBy("lower(period) ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build active bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find active bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b := &Booking{}
		if err := rows.Scan(
			&b.ID, &b.ResourceID, &b.Period.Start, &b.Period.End, &b.Status,
			&b.HoldExpiresAt, &b.Actor, &b.ServiceRef, &b.Metadata,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan active booking failed: %w", err)
		}
		if err := b.NormalizeHold(); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, nil
}

func (r *pgxRepository) scanRow(row pgx.Row) (*Booking, error) {
	b := &Booking{}
	if err := row.Scan(
		&b.ID, &b.ResourceID, &b.Period.Start, &b.Period.End, &b.Status,
		&b.HoldExpiresAt, &b.Actor, &b.ServiceRef, &b.Metadata,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := b.NormalizeHold(); err != nil {
		return nil, err
	}
	return b, nil
}
