package postgres

// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the HTTP/API and services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between the
// domain entities and SQL rows and running the necessary statements/transactions.

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/errs"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nilUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

const payerColumns = `id, module, group_id, name, phone, address, area, stb_number, monthly_amount, status, created_at, updated_at, archived_at`

type rowScanner interface{ Scan(...any) error }

func scanPayer(row rowScanner) (dues.Payer, error) {
	var p dues.Payer
	var groupID *uuid.UUID
	err := row.Scan(&p.ID, &p.Module, &groupID, &p.Name, &p.Phone, &p.Address, &p.Area, &p.STBNumber, &p.MonthlyAmount, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.ArchivedAt)
	if err != nil {
		return dues.Payer{}, err
	}
	if groupID != nil {
		p.GroupID = *groupID
	}
	return p, nil
}

// --- Payer reads ---

func (s *Store) ListPayers(ctx context.Context, module dues.Module, groupID uuid.UUID) ([]dues.Payer, error) {
	q := `select ` + payerColumns + ` from payers where module = $1`
	args := []any{module}
	if groupID != uuid.Nil {
		q += ` and group_id = $2`
		args = append(args, groupID)
	}
	q += ` order by created_at desc, name asc`
	rows, err := s.pool.Query(ctx, q, args...)
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
	row := s.pool.QueryRow(ctx, `select `+payerColumns+` from payers where id = $1 and module = $2`, payerID, module)
	p, err := scanPayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return dues.Payer{}, errs.ErrNotFound
	}
	return p, err
}

// --- Payer writes ---

func (s *Store) CreatePayer(ctx context.Context, p dues.Payer) (dues.Payer, error) {
	_, err := s.pool.Exec(ctx, `
		insert into payers (`+payerColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.Module, nilUUID(p.GroupID), p.Name, p.Phone, p.Address, p.Area, p.STBNumber, p.MonthlyAmount, p.Status, p.CreatedAt, p.UpdatedAt, p.ArchivedAt)
	if err != nil {
		return dues.Payer{}, err
	}
	return p, nil
}

func (s *Store) UpdatePayer(ctx context.Context, p dues.Payer) (dues.Payer, error) {
	tag, err := s.pool.Exec(ctx, `
		update payers
		set name=$1, phone=$2, address=$3, area=$4, stb_number=$5, monthly_amount=$6, status=$7, updated_at=$8, archived_at=$9
		where id=$10 and module=$11`,
		p.Name, p.Phone, p.Address, p.Area, p.STBNumber, p.MonthlyAmount, p.Status, p.UpdatedAt, p.ArchivedAt, p.ID, p.Module)
	if err != nil {
		return dues.Payer{}, err
	}
	if tag.RowsAffected() == 0 {
		return dues.Payer{}, errs.ErrNotFound
	}
	return p, nil
}

// DeletePayer removes the payer and their payments in one transaction.
func (s *Store) DeletePayer(ctx context.Context, module dues.Module, payerID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `delete from payments where module=$1 and payer_id=$2`, module, payerID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `delete from payers where id=$1 and module=$2`, payerID, module)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return tx.Commit(ctx)
}

// --- Group reads ---

const groupColumns = `id, module, name, description, monthly_amount, status, created_at, updated_at`

func scanGroup(row rowScanner) (dues.Group, error) {
	var g dues.Group
	err := row.Scan(&g.ID, &g.Module, &g.Name, &g.Description, &g.MonthlyAmount, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (s *Store) ListGroups(ctx context.Context, module dues.Module) ([]dues.Group, error) {
	rows, err := s.pool.Query(ctx, `select `+groupColumns+` from payer_groups where module = $1 order by created_at desc, name asc`, module)
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
	row := s.pool.QueryRow(ctx, `select `+groupColumns+` from payer_groups where id = $1 and module = $2`, groupID, module)
	g, err := scanGroup(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return dues.Group{}, errs.ErrNotFound
	}
	return g, err
}

func (s *Store) CountMembersByGroup(ctx context.Context, module dues.Module) (map[uuid.UUID]int, error) {
	rows, err := s.pool.Query(ctx, `
		select group_id, count(*)
		from payers
		where module = $1 and group_id is not null
		group by group_id`, module)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// --- Group writes ---

func (s *Store) CreateGroup(ctx context.Context, g dues.Group) (dues.Group, error) {
	_, err := s.pool.Exec(ctx, `
		insert into payer_groups (`+groupColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8)`,
		g.ID, g.Module, g.Name, g.Description, g.MonthlyAmount, g.Status, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return dues.Group{}, err
	}
	return g, nil
}

func (s *Store) UpdateGroup(ctx context.Context, g dues.Group) (dues.Group, error) {
	tag, err := s.pool.Exec(ctx, `
		update payer_groups
		set name=$1, description=$2, monthly_amount=$3, status=$4, updated_at=$5
		where id=$6 and module=$7`,
		g.Name, g.Description, g.MonthlyAmount, g.Status, g.UpdatedAt, g.ID, g.Module)
	if err != nil {
		return dues.Group{}, err
	}
	if tag.RowsAffected() == 0 {
		return dues.Group{}, errs.ErrNotFound
	}
	return g, nil
}

// DeleteGroup removes the group, its members, and their payments in one
// transaction.
func (s *Store) DeleteGroup(ctx context.Context, module dues.Module, groupID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `delete from payments where module=$1 and group_id=$2`, module, groupID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `delete from payers where module=$1 and group_id=$2`, module, groupID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `delete from payer_groups where id=$1 and module=$2`, groupID, module)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return tx.Commit(ctx)
}

// --- Payment reads ---

const paymentColumns = `id, module, group_id, payer_id, month, amount, mode, paid_date, whatsapp_sent, whatsapp_sent_at, created_at`

func scanPayment(row rowScanner) (dues.Payment, error) {
	var p dues.Payment
	var groupID *uuid.UUID
	var month string
	err := row.Scan(&p.ID, &p.Module, &groupID, &p.PayerID, &month, &p.Amount, &p.Mode, &p.PaidDate, &p.WhatsAppSent, &p.WhatsAppSentAt, &p.CreatedAt)
	if err != nil {
		return dues.Payment{}, err
	}
	if groupID != nil {
		p.GroupID = *groupID
	}
	if p.Month, err = dues.ParseMonth(month); err != nil {
		return dues.Payment{}, err
	}
	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, module dues.Module, f dues.PaymentFilter) ([]dues.Payment, error) {
	q := `select ` + paymentColumns + ` from payments where module = $1`
	args := []any{module}
	if f.Month != nil {
		args = append(args, f.Month.String())
		q += ` and month = $` + strconv.Itoa(len(args))
	}
	if f.GroupID != uuid.Nil {
		args = append(args, f.GroupID)
		q += ` and group_id = $` + strconv.Itoa(len(args))
	}
	if f.PayerID != uuid.Nil {
		args = append(args, f.PayerID)
		q += ` and payer_id = $` + strconv.Itoa(len(args))
	}
	q += ` order by created_at desc`
	rows, err := s.pool.Query(ctx, q, args...)
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
	row := s.pool.QueryRow(ctx, `select `+paymentColumns+` from payments where id = $1 and module = $2`, paymentID, module)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return dues.Payment{}, errs.ErrNotFound
	}
	return p, err
}

// --- Payment writes ---

func (s *Store) CreatePayment(ctx context.Context, p dues.Payment) (dues.Payment, error) {
	_, err := s.pool.Exec(ctx, `
		insert into payments (`+paymentColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.Module, nilUUID(p.GroupID), p.PayerID, p.Month.String(), p.Amount, p.Mode, p.PaidDate, p.WhatsAppSent, p.WhatsAppSentAt, p.CreatedAt)
	if isUniqueViolation(err) {
		return dues.Payment{}, errs.ErrDuplicatePayment
	}
	if err != nil {
		return dues.Payment{}, err
	}
	return p, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p dues.Payment) (dues.Payment, error) {
	tag, err := s.pool.Exec(ctx, `
		update payments
		set amount=$1, mode=$2, paid_date=$3, whatsapp_sent=$4, whatsapp_sent_at=$5
		where id=$6 and module=$7`,
		p.Amount, p.Mode, p.PaidDate, p.WhatsAppSent, p.WhatsAppSentAt, p.ID, p.Module)
	if err != nil {
		return dues.Payment{}, err
	}
	if tag.RowsAffected() == 0 {
		return dues.Payment{}, errs.ErrNotFound
	}
	return p, nil
}

func (s *Store) DeletePayment(ctx context.Context, module dues.Module, paymentID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from payments where id=$1 and module=$2`, paymentID, module)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Settings ---

func (s *Store) GetSettings(ctx context.Context, module dues.Module) (dues.Settings, error) {
	var st dues.Settings
	err := s.pool.QueryRow(ctx, `
		select module, reminder_day, reminder_enabled, business_name, business_phone, country_code, staff, updated_at
		from module_settings where module = $1`, module).
		Scan(&st.Module, &st.ReminderDay, &st.ReminderEnabled, &st.BusinessName, &st.BusinessPhone, &st.CountryCode, &st.Staff, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return dues.Settings{}, errs.ErrNotFound
	}
	if err != nil {
		return dues.Settings{}, err
	}
	if st.Staff == nil {
		st.Staff = []dues.StaffMember{}
	}
	return st, nil
}

func (s *Store) SaveSettings(ctx context.Context, st dues.Settings) (dues.Settings, error) {
	staff := st.Staff
	if staff == nil {
		staff = []dues.StaffMember{}
	}
	_, err := s.pool.Exec(ctx, `
		insert into module_settings (module, reminder_day, reminder_enabled, business_name, business_phone, country_code, staff, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
		on conflict (module) do update set
			reminder_day=excluded.reminder_day,
			reminder_enabled=excluded.reminder_enabled,
			business_name=excluded.business_name,
			business_phone=excluded.business_phone,
			country_code=excluded.country_code,
			staff=excluded.staff,
			updated_at=excluded.updated_at`,
		st.Module, st.ReminderDay, st.ReminderEnabled, st.BusinessName, st.BusinessPhone, st.CountryCode, staff, st.UpdatedAt)
	if err != nil {
		return dues.Settings{}, err
	}
	return st, nil
}

// --- Backup / restore ---

// RestoreModule bulk-imports a module dataset inside one transaction.
func (s *Store) RestoreModule(ctx context.Context, module dues.Module, payers []dues.Payer, groups []dues.Group, payments []dues.Payment, replace bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if replace {
		for _, table := range []string{"payments", "payers", "payer_groups"} {
			if _, err := tx.Exec(ctx, `delete from `+table+` where module = $1`, module); err != nil {
				return err
			}
		}
	}
	for _, g := range groups {
		if _, err := tx.Exec(ctx, `
			insert into payer_groups (`+groupColumns+`)
			values ($1,$2,$3,$4,$5,$6,$7,$8)`,
			g.ID, module, g.Name, g.Description, g.MonthlyAmount, g.Status, g.CreatedAt, g.UpdatedAt); err != nil {
			return err
		}
	}
	for _, p := range payers {
		if _, err := tx.Exec(ctx, `
			insert into payers (`+payerColumns+`)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			p.ID, module, nilUUID(p.GroupID), p.Name, p.Phone, p.Address, p.Area, p.STBNumber, p.MonthlyAmount, p.Status, p.CreatedAt, p.UpdatedAt, p.ArchivedAt); err != nil {
			return err
		}
	}
	for _, p := range payments {
		if _, err := tx.Exec(ctx, `
			insert into payments (`+paymentColumns+`)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			p.ID, module, nilUUID(p.GroupID), p.PayerID, p.Month.String(), p.Amount, p.Mode, p.PaidDate, p.WhatsAppSent, p.WhatsAppSentAt, p.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
