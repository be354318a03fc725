package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists accrual state in PostgreSQL. Every mutating
// operation runs inside a single transaction with row locks, so concurrent
// callers only observe fully settled, fully applied states; a failure rolls
// the whole operation back, settlement included.
//
// Amounts are stored as NUMERIC(20,0) to cover the full uint64 range and
// travel as decimal strings.
type PostgresLedger struct {
	db    *pgxpool.Pool
	clock Clock
}

// NewPostgresLedger constructs a Postgres-backed ledger.
func NewPostgresLedger(db *pgxpool.Pool, clock Clock) *PostgresLedger {
	if clock == nil {
		clock = time.Now
	}
	return &PostgresLedger{db: db, clock: clock}
}

// EnsureSchema creates the ledger tables if they do not exist and seeds the
// global rate. The seed only applies on first boot; an existing rate row wins.
func (l *PostgresLedger) EnsureSchema(ctx context.Context, initialRate uint64) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ledger_accounts (
            address      TEXT PRIMARY KEY,
            principal    NUMERIC(20,0) NOT NULL DEFAULT 0,
            locked_rate  NUMERIC(20,0) NOT NULL DEFAULT 0,
            last_settled BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS ledger_state (
            id           SMALLINT PRIMARY KEY CHECK (id = 1),
            current_rate NUMERIC(20,0) NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS ledger_allowances (
            owner   TEXT NOT NULL,
            spender TEXT NOT NULL,
            amount  NUMERIC(20,0) NOT NULL,
            PRIMARY KEY (owner, spender)
        )`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	_, err := l.db.Exec(ctx, `INSERT INTO ledger_state (id, current_rate) VALUES (1, $1::NUMERIC)
        ON CONFLICT (id) DO NOTHING`, formatAmount(initialRate))
	return err
}

func (l *PostgresLedger) SetRate(ctx context.Context, newRate uint64) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	current, err := currentRateTx(ctx, tx, true)
	if err != nil {
		return err
	}
	if newRate > current {
		return &RateIncreaseError{Current: current, Attempted: newRate}
	}
	if _, err := tx.Exec(ctx, `UPDATE ledger_state SET current_rate = $1::NUMERIC WHERE id = 1`, formatAmount(newRate)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *PostgresLedger) CurrentRate(ctx context.Context) (uint64, error) {
	var raw string
	if err := l.db.QueryRow(ctx, `SELECT current_rate::TEXT FROM ledger_state WHERE id = 1`).Scan(&raw); err != nil {
		return 0, fmt.Errorf("load current rate: %w", err)
	}
	return parseAmount(raw)
}

func (l *PostgresLedger) BalanceOf(ctx context.Context, addr Address) (uint64, error) {
	acct, err := l.loadAccount(ctx, l.db, addr)
	if err != nil {
		return 0, err
	}
	return accruedBalance(acct.principal, acct.lockedRate, acct.lastSettled, l.clock().Unix())
}

func (l *PostgresLedger) PrincipalOf(ctx context.Context, addr Address) (uint64, error) {
	acct, err := l.loadAccount(ctx, l.db, addr)
	if err != nil {
		return 0, err
	}
	return acct.principal, nil
}

func (l *PostgresLedger) RateOf(ctx context.Context, addr Address) (uint64, error) {
	acct, err := l.loadAccount(ctx, l.db, addr)
	if err != nil {
		return 0, err
	}
	return acct.lockedRate, nil
}

func (l *PostgresLedger) Mint(ctx context.Context, to Address, amount uint64) (MutationResult, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return MutationResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	now := l.clock().Unix()
	acct, err := l.lockAccount(ctx, tx, to)
	if err != nil {
		return MutationResult{}, err
	}
	acct, err = settled(acct, now)
	if err != nil {
		return MutationResult{}, err
	}
	if acct.principal == 0 && acct.lockedRate == 0 {
		rate, err := currentRateTx(ctx, tx, false)
		if err != nil {
			return MutationResult{}, err
		}
		acct.lockedRate = rate
	}
	updated := acct.principal + amount
	if updated < acct.principal {
		return MutationResult{}, ErrAmountOverflow
	}
	acct.principal = updated

	if err := storeAccount(ctx, tx, to, acct); err != nil {
		return MutationResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{Account: to, Balance: acct.principal}, nil
}

func (l *PostgresLedger) Burn(ctx context.Context, from Address, amount uint64) (MutationResult, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return MutationResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	now := l.clock().Unix()
	acct, err := l.lockAccount(ctx, tx, from)
	if err != nil {
		return MutationResult{}, err
	}
	acct, err = settled(acct, now)
	if err != nil {
		return MutationResult{}, err
	}
	amount = resolveAmount(amount, acct.principal)
	if amount > acct.principal {
		return MutationResult{}, ErrInsufficientBalance
	}
	acct.principal -= amount

	if err := storeAccount(ctx, tx, from, acct); err != nil {
		return MutationResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{Account: from, Balance: acct.principal}, nil
}

func (l *PostgresLedger) Transfer(ctx context.Context, from, to Address, amount uint64) (TransferResult, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	res, err := l.transferTx(ctx, tx, from, to, amount)
	if err != nil {
		return TransferResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return TransferResult{}, err
	}
	return res, nil
}

func (l *PostgresLedger) TransferFrom(ctx context.Context, spender, from, to Address, amount uint64) (TransferResult, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	allowance, err := lockAllowance(ctx, tx, from, spender)
	if err != nil {
		return TransferResult{}, err
	}
	if allowance != MaxAmount {
		if amount == MaxAmount {
			acct, err := l.lockAccount(ctx, tx, from)
			if err != nil {
				return TransferResult{}, err
			}
			amount, err = accruedBalance(acct.principal, acct.lockedRate, acct.lastSettled, l.clock().Unix())
			if err != nil {
				return TransferResult{}, err
			}
		}
		if amount > allowance {
			return TransferResult{}, ErrInsufficientAllowance
		}
	}

	res, err := l.transferTx(ctx, tx, from, to, amount)
	if err != nil {
		return TransferResult{}, err
	}
	if allowance != MaxAmount {
		if err := storeAllowance(ctx, tx, from, spender, allowance-amount); err != nil {
			return TransferResult{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return TransferResult{}, err
	}
	return res, nil
}

func (l *PostgresLedger) Approve(ctx context.Context, owner, spender Address, amount uint64) error {
	_, err := l.db.Exec(ctx, `INSERT INTO ledger_allowances (owner, spender, amount)
        VALUES ($1, $2, $3::NUMERIC)
        ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount`,
		owner.String(), spender.String(), formatAmount(amount))
	return err
}

func (l *PostgresLedger) Allowance(ctx context.Context, owner, spender Address) (uint64, error) {
	var raw string
	err := l.db.QueryRow(ctx, `SELECT amount::TEXT FROM ledger_allowances WHERE owner = $1 AND spender = $2`,
		owner.String(), spender.String()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseAmount(raw)
}

// transferTx settles both parties under row locks, taken in address order to
// keep lock acquisition deterministic across concurrent transfers.
func (l *PostgresLedger) transferTx(ctx context.Context, tx pgx.Tx, from, to Address, amount uint64) (TransferResult, error) {
	now := l.clock().Unix()

	first, second := from, to
	if second.String() < first.String() {
		first, second = second, first
	}
	locked := make(map[Address]account, 2)
	for _, addr := range []Address{first, second} {
		if _, ok := locked[addr]; ok {
			continue
		}
		acct, err := l.lockAccount(ctx, tx, addr)
		if err != nil {
			return TransferResult{}, err
		}
		locked[addr] = acct
	}

	fromAcct, err := settled(locked[from], now)
	if err != nil {
		return TransferResult{}, err
	}
	amount = resolveAmount(amount, fromAcct.principal)
	if amount > fromAcct.principal {
		return TransferResult{}, ErrInsufficientBalance
	}

	if from == to {
		if err := storeAccount(ctx, tx, from, fromAcct); err != nil {
			return TransferResult{}, err
		}
		return TransferResult{From: from, To: to, FromBalance: fromAcct.principal, ToBalance: fromAcct.principal}, nil
	}

	toAcct, err := settled(locked[to], now)
	if err != nil {
		return TransferResult{}, err
	}
	if toAcct.principal == 0 {
		toAcct.lockedRate = fromAcct.lockedRate
	}
	updated := toAcct.principal + amount
	if updated < toAcct.principal {
		return TransferResult{}, ErrAmountOverflow
	}
	fromAcct.principal -= amount
	toAcct.principal = updated

	if err := storeAccount(ctx, tx, from, fromAcct); err != nil {
		return TransferResult{}, err
	}
	if err := storeAccount(ctx, tx, to, toAcct); err != nil {
		return TransferResult{}, err
	}
	return TransferResult{From: from, To: to, FromBalance: fromAcct.principal, ToBalance: toAcct.principal}, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// loadAccount reads an account without locking it. Missing rows come back as
// the zero record, matching implicit account creation.
func (l *PostgresLedger) loadAccount(ctx context.Context, q rowQuerier, addr Address) (account, error) {
	return scanAccount(q.QueryRow(ctx,
		`SELECT principal::TEXT, locked_rate::TEXT, last_settled FROM ledger_accounts WHERE address = $1`,
		addr.String()))
}

// lockAccount reads an account under FOR UPDATE within the transaction.
func (l *PostgresLedger) lockAccount(ctx context.Context, tx pgx.Tx, addr Address) (account, error) {
	return scanAccount(tx.QueryRow(ctx,
		`SELECT principal::TEXT, locked_rate::TEXT, last_settled FROM ledger_accounts WHERE address = $1 FOR UPDATE`,
		addr.String()))
}

func scanAccount(row pgx.Row) (account, error) {
	var principalRaw, rateRaw string
	var acct account
	if err := row.Scan(&principalRaw, &rateRaw, &acct.lastSettled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account{}, nil
		}
		return account{}, err
	}
	principal, err := parseAmount(principalRaw)
	if err != nil {
		return account{}, err
	}
	rate, err := parseAmount(rateRaw)
	if err != nil {
		return account{}, err
	}
	acct.principal = principal
	acct.lockedRate = rate
	return acct, nil
}

func storeAccount(ctx context.Context, tx pgx.Tx, addr Address, acct account) error {
	_, err := tx.Exec(ctx, `INSERT INTO ledger_accounts (address, principal, locked_rate, last_settled)
        VALUES ($1, $2::NUMERIC, $3::NUMERIC, $4)
        ON CONFLICT (address) DO UPDATE SET
            principal = EXCLUDED.principal,
            locked_rate = EXCLUDED.locked_rate,
            last_settled = EXCLUDED.last_settled`,
		addr.String(), formatAmount(acct.principal), formatAmount(acct.lockedRate), acct.lastSettled)
	return err
}

func currentRateTx(ctx context.Context, tx pgx.Tx, forUpdate bool) (uint64, error) {
	query := `SELECT current_rate::TEXT FROM ledger_state WHERE id = 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var raw string
	if err := tx.QueryRow(ctx, query).Scan(&raw); err != nil {
		return 0, fmt.Errorf("load current rate: %w", err)
	}
	return parseAmount(raw)
}

func lockAllowance(ctx context.Context, tx pgx.Tx, owner, spender Address) (uint64, error) {
	var raw string
	err := tx.QueryRow(ctx, `SELECT amount::TEXT FROM ledger_allowances WHERE owner = $1 AND spender = $2 FOR UPDATE`,
		owner.String(), spender.String()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseAmount(raw)
}

func storeAllowance(ctx context.Context, tx pgx.Tx, owner, spender Address, amount uint64) error {
	_, err := tx.Exec(ctx, `INSERT INTO ledger_allowances (owner, spender, amount)
        VALUES ($1, $2, $3::NUMERIC)
        ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount`,
		owner.String(), spender.String(), formatAmount(amount))
	return err
}

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseAmount(raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse stored amount %q: %w", raw, err)
	}
	return v, nil
}
