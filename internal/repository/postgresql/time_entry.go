package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/domain/timeentry"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const timeEntryColumns = `id, company_id, employee_id, entry_type, "timestamp", is_automatic, is_manual,
	auto_close_reason, is_cancelled, cancelled_at, cancelled_by, cancellation_reason, created_at`

type timeEntryRepositoryImpl struct {
	db *database.DB
}

func NewTimeEntryRepository(db *database.DB) timeentry.TimeEntryRepository {
	return &timeEntryRepositoryImpl{db: db}
}

func scanTimeEntry(row pgx.Row) (timeentry.TimeEntry, error) {
	var (
		e      timeentry.TimeEntry
		reason *string
	)
	err := row.Scan(
		&e.ID, &e.OrgID, &e.EmployeeID, &e.EntryType, &e.Timestamp, &e.IsAutomatic, &e.IsManual,
		&reason, &e.IsCancelled, &e.CancelledAt, &e.CancelledBy, &e.CancellationReason, &e.CreatedAt,
	)
	if err != nil {
		return timeentry.TimeEntry{}, err
	}
	if reason != nil {
		r := timeentry.AutoCloseReason(*reason)
		e.AutoCloseReason = &r
	}
	e.Timestamp = e.Timestamp.UTC()
	return e, nil
}

// Create implements timeentry.TimeEntryRepository.
func (t *timeEntryRepositoryImpl) Create(ctx context.Context, entry timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, t.db)

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	var reason *string
	if entry.AutoCloseReason != nil {
		r := string(*entry.AutoCloseReason)
		reason = &r
	}

	query := `
		INSERT INTO time_entries (id, company_id, employee_id, entry_type, "timestamp", is_automatic, is_manual, auto_close_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + timeEntryColumns

	created, err := scanTimeEntry(q.QueryRow(ctx, query,
		entry.ID,
		entry.OrgID,
		entry.EmployeeID,
		string(entry.EntryType),
		entry.Timestamp,
		entry.IsAutomatic,
		entry.IsManual,
		reason,
	))
	if err != nil {
		return timeentry.TimeEntry{}, fmt.Errorf("failed to create time entry: %w", err)
	}

	return created, nil
}

// GetLatestClockIn implements timeentry.TimeEntryRepository.
func (t *timeEntryRepositoryImpl) GetLatestClockIn(ctx context.Context, employeeID string) (*timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE employee_id = $1
			AND entry_type = $2
			AND is_cancelled = FALSE
		ORDER BY "timestamp" DESC, created_at DESC
		LIMIT 1
	`

	entry, err := scanTimeEntry(q.QueryRow(ctx, query, employeeID, string(timeentry.EntryTypeClockIn)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest clock-in: %w", err)
	}

	return &entry, nil
}

// HasClockOutAfter implements timeentry.TimeEntryRepository.
func (t *timeEntryRepositoryImpl) HasClockOutAfter(ctx context.Context, employeeID string, since time.Time) (bool, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM time_entries
			WHERE employee_id = $1
				AND entry_type = $2
				AND is_cancelled = FALSE
				AND "timestamp" > $3
		)
	`

	var exists bool
	err := q.QueryRow(ctx, query, employeeID, string(timeentry.EntryTypeClockOut), since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check clock-out: %w", err)
	}

	return exists, nil
}

// GetLastEntryAfter implements timeentry.TimeEntryRepository.
func (t *timeEntryRepositoryImpl) GetLastEntryAfter(ctx context.Context, employeeID string, since time.Time) (*timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE employee_id = $1
			AND is_cancelled = FALSE
			AND "timestamp" >= $2
		ORDER BY "timestamp" DESC, created_at DESC
		LIMIT 1
	`

	entry, err := scanTimeEntry(q.QueryRow(ctx, query, employeeID, since))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last entry: %w", err)
	}

	return &entry, nil
}

// LockForClose implements timeentry.TimeEntryRepository.
// Must run inside a transaction, otherwise the row lock is released immediately.
func (t *timeEntryRepositoryImpl) LockForClose(ctx context.Context, clockInID string) (timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE id = $1 AND entry_type = $2
		FOR UPDATE
	`

	entry, err := scanTimeEntry(q.QueryRow(ctx, query, clockInID, string(timeentry.EntryTypeClockIn)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeentry.TimeEntry{}, timeentry.ErrTimeEntryNotFound
		}
		return timeentry.TimeEntry{}, fmt.Errorf("failed to lock clock-in: %w", err)
	}

	return entry, nil
}

// ListOpenClockIns implements timeentry.TimeEntryRepository.
func (t *timeEntryRepositoryImpl) ListOpenClockIns(ctx context.Context, orgID string, from, to time.Time) ([]timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries ci
		WHERE ci.company_id = $1
			AND ci.entry_type = $2
			AND ci.is_cancelled = FALSE
			AND ci."timestamp" >= $3
			AND ci."timestamp" < $4
			AND NOT EXISTS (
				SELECT 1 FROM time_entries co
				WHERE co.employee_id = ci.employee_id
					AND co.entry_type = $5
					AND co.is_cancelled = FALSE
					AND co."timestamp" > ci."timestamp"
			)
		ORDER BY ci."timestamp" DESC
	`

	rows, err := q.Query(ctx, query, orgID, string(timeentry.EntryTypeClockIn), from, to, string(timeentry.EntryTypeClockOut))
	if err != nil {
		return nil, fmt.Errorf("failed to list open clock-ins: %w", err)
	}
	defer rows.Close()

	var entries []timeentry.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clock-in: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clock-ins: %w", err)
	}

	return entries, nil
}
