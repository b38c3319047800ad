package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// schema is the subset of the HRIS tables the resolution repositories touch.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'employee'
);

CREATE TABLE IF NOT EXISTS work_schedules (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	name TEXT NOT NULL,
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS work_schedule_times (
	id UUID PRIMARY KEY,
	work_schedule_id UUID NOT NULL REFERENCES work_schedules(id),
	day_of_week INT NOT NULL,
	clock_in_time TIME NOT NULL,
	break_start_time TIME,
	break_end_time TIME,
	clock_out_time TIME NOT NULL,
	is_next_day_checkout BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS employees (
	id UUID PRIMARY KEY,
	user_id UUID REFERENCES users(id),
	company_id UUID NOT NULL,
	manager_id UUID,
	work_schedule_id UUID REFERENCES work_schedules(id),
	full_name TEXT NOT NULL,
	employment_status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS employee_schedule_assignments (
	id UUID PRIMARY KEY,
	employee_id UUID NOT NULL REFERENCES employees(id),
	work_schedule_id UUID NOT NULL REFERENCES work_schedules(id),
	start_date DATE NOT NULL,
	end_date DATE NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance_policies (
	company_id UUID PRIMARY KEY,
	timezone TEXT,
	missing_clock_out_mode TEXT,
	notify_employee BOOLEAN,
	notify_approvers BOOLEAN,
	require_approval_on_overtime BOOLEAN,
	auto_close_enabled BOOLEAN,
	auto_close_strategy TEXT,
	tolerance_minutes INT,
	trigger_extra_minutes INT,
	max_open_hours INT,
	fixed_hour INT,
	fixed_minute INT,
	auto_closed_requires_review BOOLEAN
);

CREATE TABLE IF NOT EXISTS protected_windows (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	name TEXT NOT NULL,
	scope TEXT NOT NULL,
	employee_id UUID,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	weekdays INT[] NOT NULL DEFAULT '{}',
	start_minute INT NOT NULL,
	end_minute INT NOT NULL,
	tolerance_minutes_override INT,
	max_open_hours_override INT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS time_entries (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	employee_id UUID NOT NULL,
	entry_type TEXT NOT NULL,
	"timestamp" TIMESTAMPTZ NOT NULL,
	is_automatic BOOLEAN NOT NULL DEFAULT FALSE,
	is_manual BOOLEAN NOT NULL DEFAULT FALSE,
	auto_close_reason TEXT,
	is_cancelled BOOLEAN NOT NULL DEFAULT FALSE,
	cancelled_at TIMESTAMPTZ,
	cancelled_by UUID,
	cancellation_reason TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);

CREATE TABLE IF NOT EXISTS workday_summaries (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	employee_id UUID NOT NULL,
	work_date DATE NOT NULL,
	resolution_status TEXT NOT NULL,
	data_quality TEXT NOT NULL,
	resolution_flags JSONB NOT NULL DEFAULT '{}',
	overtime_calc_status TEXT NOT NULL,
	overtime_calc_updated_at TIMESTAMPTZ,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (company_id, employee_id, work_date)
);

CREATE TABLE IF NOT EXISTS attendance_alerts (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	employee_id UUID NOT NULL,
	alert_date DATE NOT NULL,
	type TEXT NOT NULL,
	severity TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	status TEXT NOT NULL,
	workday_summary_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (employee_id, alert_date, type)
);

CREATE TABLE IF NOT EXISTS overtime_workday_jobs (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	employee_id UUID NOT NULL,
	work_date DATE NOT NULL,
	status TEXT NOT NULL,
	requested_at TIMESTAMPTZ NOT NULL,
	UNIQUE (company_id, employee_id, work_date)
);

CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	recipient_id UUID NOT NULL,
	sender_id UUID,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	data JSONB,
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notification_preferences (
	user_id UUID NOT NULL,
	notification_type TEXT NOT NULL,
	push_enabled BOOLEAN NOT NULL DEFAULT TRUE,
	PRIMARY KEY (user_id, notification_type)
);
`

var tables = []string{
	"notification_preferences",
	"notifications",
	"overtime_workday_jobs",
	"attendance_alerts",
	"workday_summaries",
	"time_entries",
	"protected_windows",
	"attendance_policies",
	"employee_schedule_assignments",
	"employees",
	"work_schedule_times",
	"work_schedules",
	"users",
}

// TestDatabaseSetup holds the connection used by repository integration tests
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL, creates the schema and empties it.
// The test is skipped when no database is configured.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 10, MinConns: 1})
	require.NoError(t, err, "failed to connect to test database")

	setup := &TestDatabaseSetup{DB: db}
	t.Cleanup(setup.Close)

	_, err = db.Exec(ctx, schema)
	require.NoError(t, err, "failed to create schema")
	require.NoError(t, setup.TruncateAllTables(ctx))

	return setup
}

// TruncateAllTables removes every row from the test tables
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
