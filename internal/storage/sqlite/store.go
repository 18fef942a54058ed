// Package sqlite provides a single-file store for local and offline
// deployments: the same interface surface as the postgres store, backed by
// the pure-Go modernc driver so no CGO is needed.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
)

// Store implements the repository and writer interfaces over a SQLite file.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory, opens the database, and runs migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Ready pings the database to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.db.PingContext(ctx) }

func nullUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}

func scanUUID(ns sql.NullString) (uuid.UUID, error) {
	if !ns.Valid || ns.String == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(ns.String)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const payerColumns = `id, module, group_id, name, phone, address, area, stb_number, monthly_amount, status, created_at, updated_at, archived_at`

func scanPayer(row interface{ Scan(...any) error }) (dues.Payer, error) {
	var p dues.Payer
	var id, module string
	var groupID sql.NullString
	var archivedAt sql.NullTime
	err := row.Scan(&id, &module, &groupID, &p.Name, &p.Phone, &p.Address, &p.Area, &p.STBNumber, &p.MonthlyAmount, &p.Status, &p.CreatedAt, &p.UpdatedAt, &archivedAt)
	if err != nil {
		return dues.Payer{}, err
	}
	if p.ID, err = uuid.Parse(id); err != nil {
		return dues.Payer{}, err
	}
	if p.GroupID, err = scanUUID(groupID); err != nil {
		return dues.Payer{}, err
	}
	p.Module = dues.Module(module)
	if archivedAt.Valid {
		t := archivedAt.Time
		p.ArchivedAt = &t
	}
	return p, nil
}

// --- Payer reads ---

func (s *Store) ListPayers(ctx context.Context, module dues.Module, groupID uuid.UUID) ([]dues.Payer, error) {
	q := `select ` + payerColumns + ` from payers where module = ?`
	args := []any{string(module)}
	if groupID != uuid.Nil {
		q += ` and group_id = ?`
		args = append(args, groupID.String())
	}
	q += ` order by created_at desc, name asc`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]dues.Payer, 0)
	for rows.Next() {
		p, err := scanPayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPayer(ctx context.Context, module dues.Module, payerID uuid.UUID) (dues.Payer, error) {
	row := s.db.QueryRowContext(ctx, `select `+payerColumns+` from payers where id = ? and module = ?`, payerID.String(), string(module))
	p, err := scanPayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dues.Payer{}, errs.ErrNotFound
	}
	return p, err
}

// --- Payer writes ---

func (s *Store) CreatePayer(ctx context.Context, p dues.Payer) (dues.Payer, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into payers (`+payerColumns+`)
		values (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID.String(), string(p.Module), nullUUID(p.GroupID), p.Name, p.Phone, p.Address, p.Area, p.STBNumber, p.MonthlyAmount, string(p.Status), p.CreatedAt, p.UpdatedAt, nullTime(p.ArchivedAt))
	if err != nil {
		return dues.Payer{}, err
	}
	return p, nil
}

func (s *Store) UpdatePayer(ctx context.Context, p dues.Payer) (dues.Payer, error) {
	res, err := s.db.ExecContext(ctx, `
		update payers
		set name=?, phone=?, address=?, area=?, stb_number=?, monthly_amount=?, status=?, updated_at=?, archived_at=?
		where id=? and module=?`,
		p.Name, p.Phone, p.Address, p.Area, p.STBNumber, p.MonthlyAmount, string(p.Status), p.UpdatedAt, nullTime(p.ArchivedAt), p.ID.String(), string(p.Module))
	if err != nil {
		return dues.Payer{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dues.Payer{}, errs.ErrNotFound
	}
	return p, nil
}

// DeletePayer removes the payer and their payments in one transaction.
func (s *Store) DeletePayer(ctx context.Context, module dues.Module, payerID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `delete from payments where module=? and payer_id=?`, string(module), payerID.String()); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `delete from payers where id=? and module=?`, payerID.String(), string(module))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return tx.Commit()
}

// --- Group reads ---

const groupColumns = `id, module, name, description, monthly_amount, status, created_at, updated_at`

func scanGroup(row interface{ Scan(...any) error }) (dues.Group, error) {
	var g dues.Group
	var id, module string
	err := row.Scan(&id, &module, &g.Name, &g.Description, &g.MonthlyAmount, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return dues.Group{}, err
	}
	if g.ID, err = uuid.Parse(id); err != nil {
		return dues.Group{}, err
	}
	g.Module = dues.Module(module)
	return g, nil
}

func (s *Store) ListGroups(ctx context.Context, module dues.Module) ([]dues.Group, error) {
	rows, err := s.db.QueryContext(ctx, `select `+groupColumns+` from payer_groups where module = ? order by created_at desc, name asc`, string(module))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]dues.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGroup(ctx context.Context, module dues.Module, groupID uuid.UUID) (dues.Group, error) {
	row := s.db.QueryRowContext(ctx, `select `+groupColumns+` from payer_groups where id = ? and module = ?`, groupID.String(), string(module))
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dues.Group{}, errs.ErrNotFound
	}
	return g, err
}

func (s *Store) CountMembersByGroup(ctx context.Context, module dues.Module) (map[uuid.UUID]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		select group_id, count(*)
		from payers
		where module = ? and group_id is not null
		group by group_id`, string(module))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]int)
	for rows.Next() {
		var gid string
		var n int
		if err := rows.Scan(&gid, &n); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(gid)
		if err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// --- Group writes ---

func (s *Store) CreateGroup(ctx context.Context, g dues.Group) (dues.Group, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into payer_groups (`+groupColumns+`)
		values (?,?,?,?,?,?,?,?)`,
		g.ID.String(), string(g.Module), g.Name, g.Description, g.MonthlyAmount, string(g.Status), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return dues.Group{}, err
	}
	return g, nil
}

func (s *Store) UpdateGroup(ctx context.Context, g dues.Group) (dues.Group, error) {
	res, err := s.db.ExecContext(ctx, `
		update payer_groups
		set name=?, description=?, monthly_amount=?, status=?, updated_at=?
		where id=? and module=?`,
		g.Name, g.Description, g.MonthlyAmount, string(g.Status), g.UpdatedAt, g.ID.String(), string(g.Module))
	if err != nil {
		return dues.Group{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dues.Group{}, errs.ErrNotFound
	}
	return g, nil
}

// DeleteGroup removes the group, its members, and their payments in one
// transaction.
func (s *Store) DeleteGroup(ctx context.Context, module dues.Module, groupID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `delete from payments where module=? and group_id=?`, string(module), groupID.String()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from payers where module=? and group_id=?`, string(module), groupID.String()); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `delete from payer_groups where id=? and module=?`, groupID.String(), string(module))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return tx.Commit()
}

// --- Payment reads ---

const paymentColumns = `id, module, group_id, payer_id, month, amount, mode, paid_date, whatsapp_sent, whatsapp_sent_at, created_at`

func scanPayment(row interface{ Scan(...any) error }) (dues.Payment, error) {
	var p dues.Payment
	var id, module, payerID, month string
	var groupID sql.NullString
	var sentAt sql.NullTime
	err := row.Scan(&id, &module, &groupID, &payerID, &month, &p.Amount, &p.Mode, &p.PaidDate, &p.WhatsAppSent, &sentAt, &p.CreatedAt)
	if err != nil {
		return dues.Payment{}, err
	}
	if p.ID, err = uuid.Parse(id); err != nil {
		return dues.Payment{}, err
	}
	if p.PayerID, err = uuid.Parse(payerID); err != nil {
		return dues.Payment{}, err
	}
	if p.GroupID, err = scanUUID(groupID); err != nil {
		return dues.Payment{}, err
	}
	if p.Month, err = dues.ParseMonth(month); err != nil {
		return dues.Payment{}, err
	}
	p.Module = dues.Module(module)
	if sentAt.Valid {
		t := sentAt.Time
		p.WhatsAppSentAt = &t
	}
	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, module dues.Module, f dues.PaymentFilter) ([]dues.Payment, error) {
	q := `select ` + paymentColumns + ` from payments where module = ?`
	args := []any{string(module)}
	if f.Month != nil {
		q += ` and month = ?`
		args = append(args, f.Month.String())
	}
	if f.GroupID != uuid.Nil {
		q += ` and group_id = ?`
		args = append(args, f.GroupID.String())
	}
	if f.PayerID != uuid.Nil {
		q += ` and payer_id = ?`
		args = append(args, f.PayerID.String())
	}
	q += ` order by created_at desc`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]dues.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPayment(ctx context.Context, module dues.Module, paymentID uuid.UUID) (dues.Payment, error) {
	row := s.db.QueryRowContext(ctx, `select `+paymentColumns+` from payments where id = ? and module = ?`, paymentID.String(), string(module))
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dues.Payment{}, errs.ErrNotFound
	}
	return p, err
}

// --- Payment writes ---

func (s *Store) CreatePayment(ctx context.Context, p dues.Payment) (dues.Payment, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into payments (`+paymentColumns+`)
		values (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID.String(), string(p.Module), nullUUID(p.GroupID), p.PayerID.String(), p.Month.String(), p.Amount, p.Mode, p.PaidDate, p.WhatsAppSent, nullTime(p.WhatsAppSentAt), p.CreatedAt)
	if isUniqueViolation(err) {
		return dues.Payment{}, errs.ErrDuplicatePayment
	}
	if err != nil {
		return dues.Payment{}, err
	}
	return p, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p dues.Payment) (dues.Payment, error) {
	res, err := s.db.ExecContext(ctx, `
		update payments
		set amount=?, mode=?, paid_date=?, whatsapp_sent=?, whatsapp_sent_at=?
		where id=? and module=?`,
		p.Amount, p.Mode, p.PaidDate, p.WhatsAppSent, nullTime(p.WhatsAppSentAt), p.ID.String(), string(p.Module))
	if err != nil {
		return dues.Payment{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return dues.Payment{}, errs.ErrNotFound
	}
	return p, nil
}

func (s *Store) DeletePayment(ctx context.Context, module dues.Module, paymentID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from payments where id=? and module=?`, paymentID.String(), string(module))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Settings ---

func (s *Store) GetSettings(ctx context.Context, module dues.Module) (dues.Settings, error) {
	var st dues.Settings
	var staffJSON string
	err := s.db.QueryRowContext(ctx, `
		select module, reminder_day, reminder_enabled, business_name, business_phone, country_code, staff, updated_at
		from module_settings where module = ?`, string(module)).
		Scan(&st.Module, &st.ReminderDay, &st.ReminderEnabled, &st.BusinessName, &st.BusinessPhone, &st.CountryCode, &staffJSON, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return dues.Settings{}, errs.ErrNotFound
	}
	if err != nil {
		return dues.Settings{}, err
	}
	if err := unmarshalStaff(staffJSON, &st.Staff); err != nil {
		return dues.Settings{}, err
	}
	return st, nil
}

func (s *Store) SaveSettings(ctx context.Context, st dues.Settings) (dues.Settings, error) {
	staffJSON, err := marshalStaff(st.Staff)
	if err != nil {
		return dues.Settings{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into module_settings (module, reminder_day, reminder_enabled, business_name, business_phone, country_code, staff, updated_at)
		values (?,?,?,?,?,?,?,?)
		on conflict (module) do update set
			reminder_day=excluded.reminder_day,
			reminder_enabled=excluded.reminder_enabled,
			business_name=excluded.business_name,
			business_phone=excluded.business_phone,
			country_code=excluded.country_code,
			staff=excluded.staff,
			updated_at=excluded.updated_at`,
		string(st.Module), st.ReminderDay, st.ReminderEnabled, st.BusinessName, st.BusinessPhone, st.CountryCode, staffJSON, st.UpdatedAt)
	if err != nil {
		return dues.Settings{}, err
	}
	return st, nil
}

// --- Backup / restore ---

// RestoreModule bulk-imports a module dataset inside one transaction.
func (s *Store) RestoreModule(ctx context.Context, module dues.Module, payers []dues.Payer, groups []dues.Group, payments []dues.Payment, replace bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if replace {
		for _, table := range []string{"payments", "payers", "payer_groups"} {
			if _, err := tx.ExecContext(ctx, `delete from `+table+` where module = ?`, string(module)); err != nil {
				return err
			}
		}
	}
	for _, g := range groups {
		if _, err := tx.ExecContext(ctx, `
			insert into payer_groups (`+groupColumns+`)
			values (?,?,?,?,?,?,?,?)`,
			g.ID.String(), string(module), g.Name, g.Description, g.MonthlyAmount, string(g.Status), g.CreatedAt, g.UpdatedAt); err != nil {
			return err
		}
	}
	for _, p := range payers {
		if _, err := tx.ExecContext(ctx, `
			insert into payers (`+payerColumns+`)
			values (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			p.ID.String(), string(module), nullUUID(p.GroupID), p.Name, p.Phone, p.Address, p.Area, p.STBNumber, p.MonthlyAmount, string(p.Status), p.CreatedAt, p.UpdatedAt, nullTime(p.ArchivedAt)); err != nil {
			return err
		}
	}
	for _, p := range payments {
		if _, err := tx.ExecContext(ctx, `
			insert into payments (`+paymentColumns+`)
			values (?,?,?,?,?,?,?,?,?,?,?)`,
			p.ID.String(), string(module), nullUUID(p.GroupID), p.PayerID.String(), p.Month.String(), p.Amount, p.Mode, p.PaidDate, p.WhatsAppSent, nullTime(p.WhatsAppSentAt), p.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
