package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgLedger: order + semua line di-insert dalam satu transaction, commit dulu
// baru Append return. Tidak ada UPDATE/DELETE path sama sekali.
type PgLedger struct{ DB *pgxpool.Pool }

func (g *PgLedger) Append(ctx context.Context, o Order) (Order, error) {
	tx, err := g.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o.OrderID = uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, customer_name, phone_number, total_cents, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, o.OrderID, o.CustomerName, o.PhoneNumber, o.TotalCents, o.CreatedAt)
	if err != nil {
		return Order{}, err
	}

	for _, ln := range o.LineItems {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines(order_id, lesson_id, subject, location, price_cents, qty)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.OrderID, ln.LessonID, ln.Subject, ln.Location, ln.PriceCents, ln.Quantity,
		)
		if err != nil {
			return Order{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (g *PgLedger) Get(ctx context.Context, orderID string) (Order, error) {
	var o Order
	err := g.DB.QueryRow(ctx, `SELECT id, customer_name, phone_number, total_cents, created_at
	                           FROM orders WHERE id=$1`, orderID).
		Scan(&o.OrderID, &o.CustomerName, &o.PhoneNumber, &o.TotalCents, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := g.DB.Query(ctx, `SELECT lesson_id, subject, location, price_cents, qty
	                              FROM order_lines WHERE order_id=$1 ORDER BY lesson_id`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var ln OrderLine
		if err := rows.Scan(&ln.LessonID, &ln.Subject, &ln.Location, &ln.PriceCents, &ln.Quantity); err != nil {
			return Order{}, err
		}
		o.LineItems = append(o.LineItems, ln)
	}
	return o, rows.Err()
}
