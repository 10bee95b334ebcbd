package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidSymbol       = errors.New("symbol must not be empty")
	ErrInsufficientHolding = errors.New("sell exceeds held quantity")
)

// Position is a user's held quantity of one symbol.
type Position struct {
	UserID    int64
	Symbol    string
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

func normalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", ErrInvalidSymbol
	}
	return s, nil
}

// SetPosition replaces the held quantity of symbol.
func (s *Store) SetPosition(ctx context.Context, userID int64, symbol string, qty decimal.Decimal) error {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO positions(user_id,symbol,quantity,updated_at) VALUES(?,?,?,?)
		ON CONFLICT(user_id,symbol) DO UPDATE SET quantity=excluded.quantity, updated_at=excluded.updated_at`,
		userID, sym, qty.String(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set position %s: %w", sym, err)
	}
	return nil
}

// RemovePosition deletes symbol from the user's holdings and reports whether it was held.
func (s *Store) RemovePosition(ctx context.Context, userID int64, symbol string) (bool, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE user_id=? AND symbol=?`, userID, sym)
	if err != nil {
		return false, fmt.Errorf("remove position %s: %w", sym, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove position %s: %w", sym, err)
	}
	return n > 0, nil
}

// Positions lists the user's holdings ordered by symbol.
func (s *Store) Positions(ctx context.Context, userID int64) ([]Position, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, quantity, updated_at FROM positions WHERE user_id=? ORDER BY symbol ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var (
			sym, qty string
			ts       int64
		)
		if err := rows.Scan(&sym, &qty, &ts); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		q, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("position %s quantity %q: %w", sym, qty, err)
		}
		out = append(out, Position{UserID: userID, Symbol: sym, Quantity: q, UpdatedAt: time.Unix(ts, 0).UTC()})
	}
	return out, rows.Err()
}
