package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/itinera/backend/internal/domain"
)

// ItineraryRepo is the persistence gateway for itinerary aggregates.
// An aggregate (itinerary row, collaborators, activities) is always read and
// written as one unit. The service layer depends on this interface, not the
// concrete implementations, which allows it to be unit-tested with a mock.
type ItineraryRepo interface {
	// Save inserts or fully replaces the aggregate keyed by it.ID in a single
	// transaction and returns the persisted record.
	Save(ctx context.Context, it domain.Itinerary) (domain.Itinerary, error)

	// GetByID loads one aggregate. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Itinerary, error)

	// List returns one page of aggregates matching f, ordered by start_date
	// descending, and the total number of matches.
	List(ctx context.Context, f domain.ItineraryFilter) ([]domain.Itinerary, int64, error)

	// Update performs an atomic read-modify-write: the aggregate is locked,
	// passed to fn, and written back only if fn returns nil. An error from fn
	// is returned unchanged and nothing is persisted.
	// Returns domain.ErrNotFound if the aggregate does not exist.
	Update(ctx context.Context, id uuid.UUID, fn func(it *domain.Itinerary) error) (domain.Itinerary, error)

	// Delete removes the aggregate and everything it owns. The aggregate is
	// locked and passed to check first; an error from check is returned
	// unchanged and nothing is removed. A nil check deletes unconditionally.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID, check func(it domain.Itinerary) error) error
}

// pgItineraryRepo is the Postgres implementation of ItineraryRepo.
type pgItineraryRepo struct {
	db db
}

// NewItineraryRepo constructs an ItineraryRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewItineraryRepo(db db) ItineraryRepo {
	return &pgItineraryRepo{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var itineraryColumns = []string{
	"id", "title", "description", "destination", "start_date", "end_date",
	"owner_id", "is_public", "tags", "budget", "created_at", "updated_at",
}

func (r *pgItineraryRepo) Save(ctx context.Context, it domain.Itinerary) (domain.Itinerary, error) {
	var saved domain.Itinerary
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := writeItinerary(ctx, tx, it); err != nil {
			return err
		}
		var err error
		saved, err = loadItinerary(ctx, tx, it.ID, false)
		return err
	})
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.ItineraryRepo.Save: %w", mapError(err))
	}
	return saved, nil
}

func (r *pgItineraryRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Itinerary, error) {
	it, err := loadItinerary(ctx, r.db, id, false)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.ItineraryRepo.GetByID: %w", err)
	}
	return it, nil
}

func (r *pgItineraryRepo) Update(ctx context.Context, id uuid.UUID, fn func(it *domain.Itinerary) error) (domain.Itinerary, error) {
	var (
		updated domain.Itinerary
		fnErr   error
	)
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		it, err := loadItinerary(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if fnErr = fn(&it); fnErr != nil {
			return fnErr
		}
		it.ID = id
		if err := writeItinerary(ctx, tx, it); err != nil {
			return err
		}
		updated, err = loadItinerary(ctx, tx, id, false)
		return err
	})
	if fnErr != nil {
		return domain.Itinerary{}, fnErr
	}
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.ItineraryRepo.Update: %w", mapError(err))
	}
	return updated, nil
}

// Delete removes the itinerary row; collaborators and activities go with it
// through ON DELETE CASCADE.
func (r *pgItineraryRepo) Delete(ctx context.Context, id uuid.UUID, check func(it domain.Itinerary) error) error {
	const q = `DELETE FROM itineraries WHERE id = @id`

	var checkErr error
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		it, err := loadItinerary(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if check != nil {
			if checkErr = check(it); checkErr != nil {
				return checkErr
			}
		}
		tag, err := tx.Exec(ctx, q, pgx.NamedArgs{"id": id})
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if checkErr != nil {
		return checkErr
	}
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", mapError(err))
	}
	return nil
}

func (r *pgItineraryRepo) List(ctx context.Context, f domain.ItineraryFilter) ([]domain.Itinerary, int64, error) {
	count := psql.Select("count(*)").From("itineraries i")
	sel := psql.Select(prefixed("i", itineraryColumns)...).From("itineraries i")
	if where := filterWhere(f); len(where) > 0 {
		count = count.Where(where)
		sel = sel.Where(where)
	}

	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ItineraryRepo.List: build count: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ItineraryRepo.List: count: %w", err)
	}

	sel = sel.OrderBy("i.start_date DESC", "i.created_at DESC", "i.id")
	if f.Page.Limit > 0 {
		sel = sel.Limit(uint64(f.Page.Limit)).Offset(uint64(f.Page.Offset()))
	}
	listSQL, listArgs, err := sel.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ItineraryRepo.List: build select: %w", err)
	}

	rows, err := r.db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ItineraryRepo.List: %w", err)
	}
	defer rows.Close()

	items := []domain.Itinerary{}
	var ids []uuid.UUID
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ItineraryRepo.List: scan: %w", err)
		}
		items = append(items, it)
		ids = append(ids, it.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ItineraryRepo.List: rows: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return items, total, nil
	}
	collabs, acts, err := loadChildren(ctx, r.db, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ItineraryRepo.List: %w", err)
	}
	for i := range items {
		items[i].Collaborators = nonNil(collabs[items[i].ID])
		items[i].Activities = nonNil(acts[items[i].ID])
	}
	return items, total, nil
}

// filterWhere translates an ItineraryFilter into a squirrel predicate over
// the alias "i".
func filterWhere(f domain.ItineraryFilter) sq.And {
	where := sq.And{}
	if !f.Unrestricted {
		where = append(where, sq.Or{
			sq.Eq{"i.owner_id": f.VisibleTo},
			sq.Expr(`EXISTS (SELECT 1 FROM itinerary_collaborators c WHERE c.itinerary_id = i.id AND c.user_id = ?)`, f.VisibleTo),
			sq.Eq{"i.is_public": true},
		})
	}
	if d := strings.TrimSpace(f.Destination); d != "" {
		where = append(where, sq.ILike{"i.destination": "%" + escapeLike(d) + "%"})
	}
	if f.StartFrom != nil {
		where = append(where, sq.GtOrEq{"i.start_date": domain.CalendarDate(*f.StartFrom)})
	}
	if f.EndUntil != nil {
		where = append(where, sq.LtOrEq{"i.end_date": domain.CalendarDate(*f.EndUntil)})
	}
	return where
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

// loadItinerary reads one aggregate. With forUpdate the itinerary row is
// locked until the surrounding transaction ends.
func loadItinerary(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (domain.Itinerary, error) {
	sql := `SELECT ` + strings.Join(itineraryColumns, ", ") + ` FROM itineraries WHERE id = @id`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	it, err := scanItinerary(q.QueryRow(ctx, sql, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Itinerary{}, mapError(err)
	}

	collabs, acts, err := loadChildren(ctx, q, []uuid.UUID{id})
	if err != nil {
		return domain.Itinerary{}, err
	}
	it.Collaborators = nonNil(collabs[id])
	it.Activities = nonNil(acts[id])
	return it, nil
}

// loadChildren fetches collaborators and activities for a set of itineraries,
// each in stored position order.
func loadChildren(ctx context.Context, q querier, ids []uuid.UUID) (map[uuid.UUID][]string, map[uuid.UUID][]domain.Activity, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	args := pgx.NamedArgs{"ids": keys}

	const collabSQL = `
		SELECT itinerary_id, user_id
		FROM itinerary_collaborators
		WHERE itinerary_id = ANY(@ids::uuid[])
		ORDER BY itinerary_id, position`

	rows, err := q.Query(ctx, collabSQL, args)
	if err != nil {
		return nil, nil, fmt.Errorf("collaborators: %w", err)
	}
	collabs := map[uuid.UUID][]string{}
	for rows.Next() {
		var (
			itID pgtype.UUID
			user string
		)
		if err := rows.Scan(&itID, &user); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("collaborators: scan: %w", err)
		}
		key := uuid.UUID(itID.Bytes)
		collabs[key] = append(collabs[key], user)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("collaborators: rows: %w", err)
	}

	const activitySQL = `
		SELECT itinerary_id, id, title, description, location, category, cost,
		       image_url, activity_date, day_offset, time_of_day, start_time, end_time
		FROM activities
		WHERE itinerary_id = ANY(@ids::uuid[])
		ORDER BY itinerary_id, position`

	rows, err = q.Query(ctx, activitySQL, args)
	if err != nil {
		return nil, nil, fmt.Errorf("activities: %w", err)
	}
	defer rows.Close()
	acts := map[uuid.UUID][]domain.Activity{}
	for rows.Next() {
		itID, a, err := scanActivity(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("activities: scan: %w", err)
		}
		acts[itID] = append(acts[itID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("activities: rows: %w", err)
	}
	return collabs, acts, nil
}

// writeItinerary upserts the itinerary row and replaces its collaborators and
// activities. It must run inside a transaction.
func writeItinerary(ctx context.Context, q querier, it domain.Itinerary) error {
	const upsert = `
		INSERT INTO itineraries (id, title, description, destination, start_date, end_date,
		                         owner_id, is_public, tags, budget, created_at, updated_at)
		VALUES (@id, @title, @description, @destination, @start_date, @end_date,
		        @owner_id, @is_public, @tags, @budget, @created_at, @updated_at)
		ON CONFLICT (id) DO UPDATE
		SET title       = EXCLUDED.title,
		    description = EXCLUDED.description,
		    destination = EXCLUDED.destination,
		    start_date  = EXCLUDED.start_date,
		    end_date    = EXCLUDED.end_date,
		    is_public   = EXCLUDED.is_public,
		    tags        = EXCLUDED.tags,
		    budget      = EXCLUDED.budget,
		    updated_at  = EXCLUDED.updated_at`

	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := q.Exec(ctx, upsert, pgx.NamedArgs{
		"id":          it.ID,
		"title":       it.Title,
		"description": it.Description,
		"destination": it.Destination,
		"start_date":  it.StartDate,
		"end_date":    it.EndDate,
		"owner_id":    it.OwnerID,
		"is_public":   it.IsPublic,
		"tags":        tags,
		"budget":      it.Budget, // nil becomes NULL
		"created_at":  it.CreatedAt,
		"updated_at":  it.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("upsert itinerary: %w", err)
	}

	idArg := pgx.NamedArgs{"id": it.ID}
	if _, err := q.Exec(ctx, `DELETE FROM itinerary_collaborators WHERE itinerary_id = @id`, idArg); err != nil {
		return fmt.Errorf("clear collaborators: %w", err)
	}
	for pos, user := range it.Collaborators {
		const ins = `
			INSERT INTO itinerary_collaborators (itinerary_id, user_id, position)
			VALUES (@id, @user_id, @position)`
		if _, err := q.Exec(ctx, ins, pgx.NamedArgs{"id": it.ID, "user_id": user, "position": pos}); err != nil {
			return fmt.Errorf("insert collaborator: %w", err)
		}
	}

	if _, err := q.Exec(ctx, `DELETE FROM activities WHERE itinerary_id = @id`, idArg); err != nil {
		return fmt.Errorf("clear activities: %w", err)
	}
	for pos, a := range it.Activities {
		if err := insertActivity(ctx, q, it.ID, pos, a); err != nil {
			return err
		}
	}
	return nil
}

func insertActivity(ctx context.Context, q querier, itineraryID uuid.UUID, pos int, a domain.Activity) error {
	const ins = `
		INSERT INTO activities (itinerary_id, id, position, title, description, location, category,
		                        cost, image_url, activity_date, day_offset, time_of_day, start_time, end_time)
		VALUES (@itinerary_id, @id, @position, @title, @description, @location, @category,
		        @cost, @image_url, @activity_date, @day_offset, @time_of_day, @start_time, @end_time)`

	var (
		date            time.Time
		day             *int
		clock, from, to string
	)
	switch s := a.Schedule.(type) {
	case domain.AbsoluteSchedule:
		date, from, to = s.Date, s.StartTime, s.EndTime
	case domain.RelativeSchedule:
		d := s.Day
		date, day, clock = s.DerivedDate, &d, s.Time
	default:
		return fmt.Errorf("insert activity %s: %w: missing schedule", a.ID, domain.ErrValidation)
	}

	_, err := q.Exec(ctx, ins, pgx.NamedArgs{
		"itinerary_id":  itineraryID,
		"id":            a.ID,
		"position":      pos,
		"title":         a.Title,
		"description":   a.Description,
		"location":      a.Location,
		"category":      string(a.Category),
		"cost":          a.Cost,
		"image_url":     a.ImageURL,
		"activity_date": date,
		"day_offset":    day, // nil becomes NULL for absolute activities
		"time_of_day":   clock,
		"start_time":    from,
		"end_time":      to,
	})
	if err != nil {
		return fmt.Errorf("insert activity %s: %w", a.ID, err)
	}
	return nil
}

// scanItinerary maps one itineraries row (columns in itineraryColumns order).
func scanItinerary(s scanner) (domain.Itinerary, error) {
	var (
		it         domain.Itinerary
		id         pgtype.UUID
		start, end pgtype.Date
	)
	err := s.Scan(&id, &it.Title, &it.Description, &it.Destination, &start, &end,
		&it.OwnerID, &it.IsPublic, &it.Tags, &it.Budget, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Itinerary{}, domain.ErrNotFound
		}
		return domain.Itinerary{}, err
	}
	it.ID = uuid.UUID(id.Bytes)
	it.StartDate = start.Time
	it.EndDate = end.Time
	if it.Tags == nil {
		it.Tags = []string{}
	}
	return it, nil
}

// scanActivity maps one activities row. A non-NULL day_offset marks a
// day-offset activity; activity_date then holds the derived date.
func scanActivity(s scanner) (uuid.UUID, domain.Activity, error) {
	var (
		a               domain.Activity
		itID, id        pgtype.UUID
		category        string
		date            pgtype.Date
		day             pgtype.Int4
		clock, from, to string
	)
	err := s.Scan(&itID, &id, &a.Title, &a.Description, &a.Location, &category, &a.Cost,
		&a.ImageURL, &date, &day, &clock, &from, &to)
	if err != nil {
		return uuid.Nil, domain.Activity{}, err
	}
	a.ID = uuid.UUID(id.Bytes)
	a.Category = domain.Category(category)
	if day.Valid {
		a.Schedule = domain.RelativeSchedule{Day: int(day.Int32), Time: clock, DerivedDate: date.Time}
	} else {
		a.Schedule = domain.AbsoluteSchedule{Date: date.Time, StartTime: from, EndTime: to}
	}
	return uuid.UUID(itID.Bytes), a, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
