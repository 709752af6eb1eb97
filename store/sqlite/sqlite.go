/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Implements ledger.MemberStore and ledger.EventSource plus the CRUD surface
  the HTTP layer needs: members, shifts, volunteering declarations and
  actions, the append-only transaction log, subscriptions, and the
  fired-notification record for the expiry sweep.

APPEND-ONLY TRANSACTIONS:
  The transactions table has no update path. The single delete path removes
  the mirror rows of a shift or declaration when staff delete the
  originating record, keeping both tables consistent ahead of the
  recalculation that follows.

DATE HANDLING:
  Dates are stored as RFC3339 TEXT. Rows whose stored date fails to parse
  are surfaced with a zero time.Time; the recalculation orchestrator skips
  them rather than aborting, so one bad historical row never wedges a
  member's balance.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/neu.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/sources.go: Interfaces implemented here
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/coworkhub/neu-engine/ledger"
	"github.com/coworkhub/neu-engine/neu"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		profile TEXT NOT NULL DEFAULT 'member',
		balance TEXT NOT NULL DEFAULT '0',
		balance_expiring_soon TEXT NOT NULL DEFAULT '0',
		next_expiry TEXT,
		volunteer_hours_year TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		hours TEXT NOT NULL,
		points TEXT NOT NULL,
		day_type TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_member
		ON shifts(member_id, start_at);

	CREATE TABLE IF NOT EXISTS volunteering_actions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		points TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS volunteering_declarations (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		action_id TEXT,
		hours TEXT NOT NULL DEFAULT '0',
		points TEXT NOT NULL DEFAULT '0',
		declared_at TEXT NOT NULL,
		confirmed BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_declarations_member
		ON volunteering_declarations(member_id, declared_at);

	-- Append-only point log. Direction is implied by which member id is set.
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		from_member TEXT,
		to_member TEXT,
		amount TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		memo TEXT,
		occurred_at TEXT NOT NULL,
		shift_id TEXT,
		declaration_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_to
		ON transactions(to_member, occurred_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_from
		ON transactions(from_member, occurred_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_shift
		ON transactions(shift_id) WHERE shift_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transactions_declaration
		ON transactions(declaration_id) WHERE declaration_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		sub_type TEXT NOT NULL,
		starts_at TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		entries_left INTEGER NOT NULL DEFAULT 0,
		room_hours_left TEXT NOT NULL DEFAULT '0',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_subscriptions_active
		ON subscriptions(active, expires_at);

	-- One row per threshold ever fired; the sweep never re-fires a threshold.
	CREATE TABLE IF NOT EXISTS fired_notifications (
		id TEXT PRIMARY KEY,
		subscription_id TEXT NOT NULL,
		metric TEXT NOT NULL,
		threshold REAL NOT NULL,
		fired_at TEXT NOT NULL,
		UNIQUE(subscription_id, metric, threshold)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_member
		ON notifications(member_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// MEMBERS (ledger.MemberStore)
// =============================================================================

// SaveMember inserts a member row. Balance fields start at zero.
func (s *Store) SaveMember(ctx context.Context, m ledger.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, name, email, profile, balance, balance_expiring_soon, volunteer_hours_year, created_at)
		VALUES (?, ?, ?, ?, '0', '0', '0', ?)`,
		m.ID, m.Name, m.Email, m.Profile, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// GetMember returns the member or nil when absent.
func (s *Store) GetMember(ctx context.Context, id neu.MemberID) (*ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		m                       ledger.Member
		balance, expiring, volH string
		nextExpiry              sql.NullString
		email                   sql.NullString
		createdAt               string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, profile, balance, balance_expiring_soon, next_expiry, volunteer_hours_year, created_at
		FROM members WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &email, &m.Profile, &balance, &expiring, &nextExpiry, &volH, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	m.Email = email.String
	m.Balance = neu.Amount{Value: neu.MustParseDecimal(balance), Unit: neu.UnitPoints}
	m.BalanceExpiringSoon = neu.Amount{Value: neu.MustParseDecimal(expiring), Unit: neu.UnitPoints}
	m.VolunteerHoursYear = neu.Amount{Value: neu.MustParseDecimal(volH), Unit: neu.UnitHours}
	if nextExpiry.Valid && nextExpiry.String != "" {
		if t, err := time.Parse(time.RFC3339, nextExpiry.String); err == nil {
			m.NextExpiry = &t
		}
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &m, nil
}

// ListMembers returns all members ordered by name.
func (s *Store) ListMembers(ctx context.Context) ([]ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, profile, balance, balance_expiring_soon, next_expiry, volunteer_hours_year, created_at
		FROM members ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []ledger.Member
	for rows.Next() {
		var (
			m                       ledger.Member
			balance, expiring, volH string
			nextExpiry, email       sql.NullString
			createdAt               string
		)
		if err := rows.Scan(&m.ID, &m.Name, &email, &m.Profile, &balance, &expiring, &nextExpiry, &volH, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Email = email.String
		m.Balance = neu.Amount{Value: neu.MustParseDecimal(balance), Unit: neu.UnitPoints}
		m.BalanceExpiringSoon = neu.Amount{Value: neu.MustParseDecimal(expiring), Unit: neu.UnitPoints}
		m.VolunteerHoursYear = neu.Amount{Value: neu.MustParseDecimal(volH), Unit: neu.UnitHours}
		if nextExpiry.Valid && nextExpiry.String != "" {
			if t, err := time.Parse(time.RFC3339, nextExpiry.String); err == nil {
				m.NextExpiry = &t
			}
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListMemberIDs returns every member id.
func (s *Store) ListMemberIDs(ctx context.Context) ([]neu.MemberID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM members ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list member ids: %w", err)
	}
	defer rows.Close()

	var ids []neu.MemberID
	for rows.Next() {
		var id neu.MemberID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateBalances overwrites the derived balance fields. Only the
// recalculation orchestrator calls this.
func (s *Store) UpdateBalances(ctx context.Context, id neu.MemberID, snap neu.BalanceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var nextExpiry any
	if snap.NextExpiry != nil {
		nextExpiry = snap.NextExpiry.Format(time.RFC3339)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET balance = ?, balance_expiring_soon = ?, next_expiry = ?, volunteer_hours_year = ?
		WHERE id = ?`,
		snap.Balance.Value.String(),
		snap.ExpiringSoon.Value.String(),
		nextExpiry,
		snap.VolunteerHours.Value.String(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update balances: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return neu.ErrMemberNotFound
	}
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

// Shift is one worked shift row. Hours and points are derived at creation
// by the tariff calculator, never entered manually.
type Shift struct {
	ID        string
	MemberID  neu.MemberID
	Start     time.Time
	End       time.Time
	Hours     neu.Amount
	Points    neu.Amount
	DayType   neu.DayType
	CreatedAt time.Time
}

// SaveShift inserts a shift row.
func (s *Store) SaveShift(ctx context.Context, sh Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (id, member_id, start_at, end_at, hours, points, day_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.MemberID,
		sh.Start.UTC().Format(time.RFC3339), sh.End.UTC().Format(time.RFC3339),
		sh.Hours.Value.String(), sh.Points.Value.String(),
		sh.DayType, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

// GetShift returns a shift or nil when absent.
func (s *Store) GetShift(ctx context.Context, id string) (*Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sh                       Shift
		startAt, endAt           string
		hours, points, createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, member_id, start_at, end_at, hours, points, day_type, created_at
		FROM shifts WHERE id = ?`, id,
	).Scan(&sh.ID, &sh.MemberID, &startAt, &endAt, &hours, &points, &sh.DayType, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	sh.Start, _ = time.Parse(time.RFC3339, startAt)
	sh.End, _ = time.Parse(time.RFC3339, endAt)
	sh.Hours = neu.Amount{Value: neu.MustParseDecimal(hours), Unit: neu.UnitHours}
	sh.Points = neu.Amount{Value: neu.MustParseDecimal(points), Unit: neu.UnitPoints}
	sh.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &sh, nil
}

// ListShiftsByMember returns all shifts for a member, chronologically.
func (s *Store) ListShiftsByMember(ctx context.Context, id neu.MemberID) ([]Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, start_at, end_at, hours, points, day_type, created_at
		FROM shifts WHERE member_id = ? ORDER BY start_at ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []Shift
	for rows.Next() {
		var (
			sh                       Shift
			startAt, endAt           string
			hours, points, createdAt string
		)
		if err := rows.Scan(&sh.ID, &sh.MemberID, &startAt, &endAt, &hours, &points, &sh.DayType, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		sh.Start, _ = time.Parse(time.RFC3339, startAt)
		sh.End, _ = time.Parse(time.RFC3339, endAt)
		sh.Hours = neu.Amount{Value: neu.MustParseDecimal(hours), Unit: neu.UnitHours}
		sh.Points = neu.Amount{Value: neu.MustParseDecimal(points), Unit: neu.UnitPoints}
		sh.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// DeleteShift removes a shift and its mirror transactions in one database
// transaction. The caller recalculates the owner afterwards.
func (s *Store) DeleteShift(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM shifts WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE shift_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete shift transactions: %w", err)
	}
	return tx.Commit()
}

// ShiftsByMember implements ledger.EventSource. Unparseable dates surface
// as zero times; the orchestrator skips those rows.
func (s *Store) ShiftsByMember(ctx context.Context, id neu.MemberID) ([]ledger.ShiftEvent, error) {
	shifts, err := s.ListShiftsByMember(ctx, id)
	if err != nil {
		return nil, err
	}
	events := make([]ledger.ShiftEvent, len(shifts))
	for i, sh := range shifts {
		events[i] = ledger.ShiftEvent{
			ID:     sh.ID,
			Start:  sh.Start,
			End:    sh.End,
			Hours:  sh.Hours,
			Points: sh.Points,
		}
	}
	return events, nil
}

// =============================================================================
// VOLUNTEERING
// =============================================================================

// Action is a catalogued volunteer action with a fixed point value.
type Action struct {
	ID        string
	Name      string
	Points    neu.Amount
	CreatedAt time.Time
}

// SaveAction inserts a catalogued action.
func (s *Store) SaveAction(ctx context.Context, a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO volunteering_actions (id, name, points, created_at)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.Points.Value.String(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save action: %w", err)
	}
	return nil
}

// GetAction returns an action or nil when absent.
func (s *Store) GetAction(ctx context.Context, id string) (*Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		a                 Action
		points, createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, points, created_at FROM volunteering_actions WHERE id = ?", id,
	).Scan(&a.ID, &a.Name, &points, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	a.Points = neu.Amount{Value: neu.MustParseDecimal(points), Unit: neu.UnitPoints}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// ListActions returns the full action catalogue.
func (s *Store) ListActions(ctx context.Context) ([]Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, points, created_at FROM volunteering_actions ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var (
			a                 Action
			points, createdAt string
		)
		if err := rows.Scan(&a.ID, &a.Name, &points, &createdAt); err != nil {
			return nil, err
		}
		a.Points = neu.Amount{Value: neu.MustParseDecimal(points), Unit: neu.UnitPoints}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// Declaration is one volunteering declaration row. Points come from the
// linked action; hour-only legacy entries carry zero points.
type Declaration struct {
	ID         string
	MemberID   neu.MemberID
	ActionID   string // empty for free-form hour entries
	Hours      neu.Amount
	Points     neu.Amount
	DeclaredAt time.Time
	Confirmed  bool
	CreatedAt  time.Time
}

// SaveDeclaration inserts a declaration row.
func (s *Store) SaveDeclaration(ctx context.Context, d Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var actionID any
	if d.ActionID != "" {
		actionID = d.ActionID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO volunteering_declarations (id, member_id, action_id, hours, points, declared_at, confirmed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.MemberID, actionID,
		d.Hours.Value.String(), d.Points.Value.String(),
		d.DeclaredAt.UTC().Format(time.RFC3339), d.Confirmed,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save declaration: %w", err)
	}
	return nil
}

// GetDeclaration returns a declaration or nil when absent.
func (s *Store) GetDeclaration(ctx context.Context, id string) (*Declaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		d                     Declaration
		actionID              sql.NullString
		hours, points         string
		declaredAt, createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, member_id, action_id, hours, points, declared_at, confirmed, created_at
		FROM volunteering_declarations WHERE id = ?`, id,
	).Scan(&d.ID, &d.MemberID, &actionID, &hours, &points, &declaredAt, &d.Confirmed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get declaration: %w", err)
	}
	d.ActionID = actionID.String
	d.Hours = neu.Amount{Value: neu.MustParseDecimal(hours), Unit: neu.UnitHours}
	d.Points = neu.Amount{Value: neu.MustParseDecimal(points), Unit: neu.UnitPoints}
	d.DeclaredAt, _ = time.Parse(time.RFC3339, declaredAt)
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &d, nil
}

// ListDeclarationsByMember returns all declarations for a member.
func (s *Store) ListDeclarationsByMember(ctx context.Context, id neu.MemberID) ([]Declaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, action_id, hours, points, declared_at, confirmed, created_at
		FROM volunteering_declarations WHERE member_id = ? ORDER BY declared_at ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list declarations: %w", err)
	}
	defer rows.Close()

	var decls []Declaration
	for rows.Next() {
		var (
			d                     Declaration
			actionID              sql.NullString
			hours, points         string
			declaredAt, createdAt string
		)
		if err := rows.Scan(&d.ID, &d.MemberID, &actionID, &hours, &points, &declaredAt, &d.Confirmed, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan declaration: %w", err)
		}
		d.ActionID = actionID.String
		d.Hours = neu.Amount{Value: neu.MustParseDecimal(hours), Unit: neu.UnitHours}
		d.Points = neu.Amount{Value: neu.MustParseDecimal(points), Unit: neu.UnitPoints}
		d.DeclaredAt, _ = time.Parse(time.RFC3339, declaredAt)
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		decls = append(decls, d)
	}
	return decls, rows.Err()
}

// DeleteDeclaration removes a declaration and its mirror transactions.
// The caller recalculates the owner afterwards.
func (s *Store) DeleteDeclaration(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM volunteering_declarations WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete declaration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE declaration_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete declaration transactions: %w", err)
	}
	return tx.Commit()
}

// DeclarationsByMember implements ledger.EventSource.
func (s *Store) DeclarationsByMember(ctx context.Context, id neu.MemberID) ([]ledger.DeclarationEvent, error) {
	decls, err := s.ListDeclarationsByMember(ctx, id)
	if err != nil {
		return nil, err
	}
	events := make([]ledger.DeclarationEvent, len(decls))
	for i, d := range decls {
		events[i] = ledger.DeclarationEvent{
			ID:         d.ID,
			DeclaredAt: d.DeclaredAt,
			Hours:      d.Hours,
			Points:     d.Points,
			Confirmed:  d.Confirmed,
		}
	}
	return events, nil
}

// =============================================================================
// TRANSACTIONS (append-only)
// =============================================================================

// AppendTransaction adds one row to the point log.
func (s *Store) AppendTransaction(ctx context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var from, to, shiftID, declID any
	if tx.From != nil {
		from = string(*tx.From)
	}
	if tx.To != nil {
		to = string(*tx.To)
	}
	if tx.ShiftID != "" {
		shiftID = tx.ShiftID
	}
	if tx.DeclarationID != "" {
		declID = tx.DeclarationID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, from_member, to_member, amount, tx_type, memo, occurred_at, shift_id, declaration_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, from, to,
		tx.Amount.Value.String(), tx.Type, tx.Memo,
		tx.OccurredAt.UTC().Format(time.RFC3339),
		shiftID, declID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// ListTransactionsByMember returns every transaction where the member is
// either party, chronologically.
func (s *Store) ListTransactionsByMember(ctx context.Context, id neu.MemberID) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTransactions(ctx, `
		SELECT id, from_member, to_member, amount, tx_type, memo, occurred_at, shift_id, declaration_id, created_at
		FROM transactions
		WHERE from_member = ? OR to_member = ?
		ORDER BY occurred_at ASC, created_at ASC`, id, id)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(rows *sql.Rows) (ledger.Transaction, error) {
	var (
		tx                    ledger.Transaction
		from, to              sql.NullString
		amount                string
		memo                  sql.NullString
		occurredAt, createdAt string
		shiftID, declID       sql.NullString
	)
	err := rows.Scan(&tx.ID, &from, &to, &amount, &tx.Type, &memo, &occurredAt, &shiftID, &declID, &createdAt)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if from.Valid {
		id := neu.MemberID(from.String)
		tx.From = &id
	}
	if to.Valid {
		id := neu.MemberID(to.String)
		tx.To = &id
	}
	tx.Amount = neu.Amount{Value: neu.MustParseDecimal(amount), Unit: neu.UnitPoints}
	tx.Memo = memo.String
	// Malformed dates deliberately surface as the zero time.
	tx.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
	tx.ShiftID = shiftID.String
	tx.DeclarationID = declID.String
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return tx, nil
}

// IncomingByMember implements ledger.EventSource: all transactions whose
// destination is the member.
func (s *Store) IncomingByMember(ctx context.Context, id neu.MemberID) ([]ledger.TransactionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs, err := s.queryTransactions(ctx, `
		SELECT id, from_member, to_member, amount, tx_type, memo, occurred_at, shift_id, declaration_id, created_at
		FROM transactions WHERE to_member = ?
		ORDER BY occurred_at ASC, created_at ASC`, id)
	if err != nil {
		return nil, err
	}
	return toEvents(txs), nil
}

// OutgoingByMember implements ledger.EventSource: all transactions whose
// source is the member.
func (s *Store) OutgoingByMember(ctx context.Context, id neu.MemberID) ([]ledger.TransactionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs, err := s.queryTransactions(ctx, `
		SELECT id, from_member, to_member, amount, tx_type, memo, occurred_at, shift_id, declaration_id, created_at
		FROM transactions WHERE from_member = ?
		ORDER BY occurred_at ASC, created_at ASC`, id)
	if err != nil {
		return nil, err
	}
	return toEvents(txs), nil
}

func toEvents(txs []ledger.Transaction) []ledger.TransactionEvent {
	events := make([]ledger.TransactionEvent, len(txs))
	for i, tx := range txs {
		events[i] = ledger.TransactionEvent{
			ID:         tx.ID,
			Type:       tx.Type,
			Amount:     tx.Amount,
			OccurredAt: tx.OccurredAt,
		}
	}
	return events
}

// =============================================================================
// SUBSCRIPTIONS & NOTIFICATIONS
// =============================================================================

// Subscription is a coworking access plan feeding the expiry sweep.
type Subscription struct {
	ID            string
	MemberID      neu.MemberID
	Type          string
	Start         time.Time
	Expiry        time.Time
	EntriesLeft   int
	RoomHoursLeft neu.Amount
	Active        bool
	CreatedAt     time.Time
}

// SaveSubscription inserts or replaces a subscription row.
func (s *Store) SaveSubscription(ctx context.Context, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, member_id, sub_type, starts_at, expires_at, entries_left, room_hours_left, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sub_type = excluded.sub_type,
			starts_at = excluded.starts_at,
			expires_at = excluded.expires_at,
			entries_left = excluded.entries_left,
			room_hours_left = excluded.room_hours_left,
			active = excluded.active`,
		sub.ID, sub.MemberID, sub.Type,
		sub.Start.UTC().Format(time.RFC3339), sub.Expiry.UTC().Format(time.RFC3339),
		sub.EntriesLeft, sub.RoomHoursLeft.Value.String(), sub.Active,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// ListActiveSubscriptions returns all active subscriptions.
func (s *Store) ListActiveSubscriptions(ctx context.Context) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, sub_type, starts_at, expires_at, entries_left, room_hours_left, active, created_at
		FROM subscriptions WHERE active = TRUE ORDER BY expires_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var (
			sub                           Subscription
			startsAt, expiresAt, roomLeft string
			createdAt                     string
		)
		if err := rows.Scan(&sub.ID, &sub.MemberID, &sub.Type, &startsAt, &expiresAt, &sub.EntriesLeft, &roomLeft, &sub.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub.Start, _ = time.Parse(time.RFC3339, startsAt)
		sub.Expiry, _ = time.Parse(time.RFC3339, expiresAt)
		sub.RoomHoursLeft = neu.Amount{Value: neu.MustParseDecimal(roomLeft), Unit: neu.UnitHours}
		sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// HasFired reports whether a threshold was already fired for a subscription.
func (s *Store) HasFired(ctx context.Context, subscriptionID, metric string, threshold float64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM fired_notifications WHERE subscription_id = ? AND metric = ? AND threshold = ?",
		subscriptionID, metric, threshold,
	).Scan(&count)
	return count > 0, err
}

// MarkFired permanently records a threshold as fired. The UNIQUE constraint
// makes concurrent sweeps converge on firing once.
func (s *Store) MarkFired(ctx context.Context, id, subscriptionID, metric string, threshold float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fired_notifications (id, subscription_id, metric, threshold, fired_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, subscriptionID, metric, threshold, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil // already fired by a concurrent sweep
		}
		return fmt.Errorf("failed to mark threshold fired: %w", err)
	}
	return nil
}

// Notification is one composed member notification.
type Notification struct {
	ID        string
	MemberID  neu.MemberID
	Title     string
	Body      string
	CreatedAt time.Time
}

// SaveNotification records a composed notification.
func (s *Store) SaveNotification(ctx context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, member_id, title, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.MemberID, n.Title, n.Body, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// ListNotificationsByMember returns a member's notifications, newest first.
func (s *Store) ListNotificationsByMember(ctx context.Context, id neu.MemberID) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, title, body, created_at
		FROM notifications WHERE member_id = ? ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notes []Notification
	for rows.Next() {
		var (
			n         Notification
			body      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.MemberID, &n.Title, &body, &createdAt); err != nil {
			return nil, err
		}
		n.Body = body.String
		n.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
