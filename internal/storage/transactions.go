package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

var (
	ErrInvalidSide  = errors.New("side must be buy or sell")
	ErrInvalidPrice = errors.New("price and fee must not be negative")
)

// Transaction is one recorded buy or sell. Fee is in USD.
type Transaction struct {
	ID       string
	UserID   int64
	Symbol   string
	Side     Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Fee      decimal.Decimal
	At       time.Time
}

// RecordTransaction stores t and applies it to the user's position in one
// database transaction. A sell larger than the position fails with
// ErrInsufficientHolding; a sell that empties it removes the position.
func (s *Store) RecordTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	sym, err := normalizeSymbol(t.Symbol)
	if err != nil {
		return Transaction{}, err
	}
	t.Symbol = sym
	if t.Side != Buy && t.Side != Sell {
		return Transaction{}, ErrInvalidSide
	}
	if !t.Quantity.IsPositive() {
		return Transaction{}, ErrInvalidQuantity
	}
	if t.Price.IsNegative() || t.Fee.IsNegative() {
		return Transaction{}, ErrInvalidPrice
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}
	t.At = t.At.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Transaction{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	held, err := heldQuantity(ctx, tx, t.UserID, sym)
	if err != nil {
		return Transaction{}, err
	}
	next := held.Add(t.Quantity)
	if t.Side == Sell {
		if held.LessThan(t.Quantity) {
			return Transaction{}, fmt.Errorf("%w: %s held %s, selling %s", ErrInsufficientHolding, sym, held, t.Quantity)
		}
		next = held.Sub(t.Quantity)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO transactions(id,user_id,symbol,side,quantity,price,fee,ts) VALUES(?,?,?,?,?,?,?,?)`,
		t.ID, t.UserID, sym, string(t.Side), t.Quantity.String(), t.Price.String(), t.Fee.String(), t.At.Unix()); err != nil {
		return Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	if next.IsZero() {
		_, err = tx.ExecContext(ctx, `DELETE FROM positions WHERE user_id=? AND symbol=?`, t.UserID, sym)
	} else {
		_, err = tx.ExecContext(ctx, `INSERT INTO positions(user_id,symbol,quantity,updated_at) VALUES(?,?,?,?)
			ON CONFLICT(user_id,symbol) DO UPDATE SET quantity=excluded.quantity, updated_at=excluded.updated_at`,
			t.UserID, sym, next.String(), t.At.Unix())
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("apply transaction to position: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Transaction{}, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

func heldQuantity(ctx context.Context, tx *sql.Tx, userID int64, symbol string) (decimal.Decimal, error) {
	var qty string
	err := tx.QueryRowContext(ctx, `SELECT quantity FROM positions WHERE user_id=? AND symbol=?`, userID, symbol).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("query position %s: %w", symbol, err)
	}
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return decimal.Zero, fmt.Errorf("position %s quantity %q: %w", symbol, qty, err)
	}
	return q, nil
}

// Transactions lists the user's transactions oldest first.
func (s *Store) Transactions(ctx context.Context, userID int64) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, symbol, side, quantity, price, fee, ts FROM transactions WHERE user_id=? ORDER BY ts ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			t               Transaction
			side            string
			qty, price, fee string
			ts              int64
		)
		if err := rows.Scan(&t.ID, &t.Symbol, &side, &qty, &price, &fee, &ts); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.UserID = userID
		t.Side = Side(side)
		t.At = time.Unix(ts, 0).UTC()
		if t.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("transaction %s quantity: %w", t.ID, err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("transaction %s price: %w", t.ID, err)
		}
		if t.Fee, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("transaction %s fee: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
