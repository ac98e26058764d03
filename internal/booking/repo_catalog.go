package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgCatalog: Catalog di atas Postgres. Reserve dilakukan sebagai satu
// conditional UPDATE, bukan read-then-write, jadi atomiknya dijamin engine DB
// tanpa perlu transaction + FOR UPDATE.
type PgCatalog struct{ DB *pgxpool.Pool }

func (c *PgCatalog) Get(ctx context.Context, id int) (Lesson, error) {
	var l Lesson
	err := c.DB.QueryRow(ctx, `SELECT id, subject, location, price_cents, spaces
	                           FROM lessons WHERE id=$1`, id).
		Scan(&l.ID, &l.Subject, &l.Location, &l.PriceCents, &l.Spaces)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lesson{}, ErrLessonNotFound
	}
	if err != nil {
		return Lesson{}, err
	}
	return l, nil
}

func (c *PgCatalog) GetMany(ctx context.Context, ids []int) (map[int]Lesson, error) {
	if len(ids) == 0 {
		return map[int]Lesson{}, nil
	}
	params := ""
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := c.DB.Query(ctx, `SELECT id, subject, location, price_cents, spaces
	                              FROM lessons WHERE id IN (`+params+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]Lesson, len(ids))
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.Subject, &l.Location, &l.PriceCents, &l.Spaces); err != nil {
			return nil, err
		}
		out[l.ID] = l
	}
	return out, rows.Err()
}

func (c *PgCatalog) ListAll(ctx context.Context) ([]Lesson, error) {
	rows, err := c.DB.Query(ctx, `SELECT id, subject, location, price_cents, spaces
	                              FROM lessons ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.Subject, &l.Location, &l.PriceCents, &l.Spaces); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (c *PgCatalog) SetSpaces(ctx context.Context, id, spaces int) (Lesson, error) {
	var l Lesson
	err := c.DB.QueryRow(ctx, `UPDATE lessons SET spaces=$2 WHERE id=$1
	                           RETURNING id, subject, location, price_cents, spaces`,
		id, spaces).
		Scan(&l.ID, &l.Subject, &l.Location, &l.PriceCents, &l.Spaces)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lesson{}, ErrLessonNotFound
	}
	if err != nil {
		return Lesson{}, err
	}
	return l, nil
}

func (c *PgCatalog) Reserve(ctx context.Context, id, qty int) error {
	ct, err := c.DB.Exec(ctx, `UPDATE lessons SET spaces = spaces - $2
	                           WHERE id=$1 AND spaces >= $2`, id, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	// 0 row: bedakan lesson tidak ada vs spaces kurang
	var exists bool
	if err := c.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM lessons WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrLessonNotFound
	}
	return ErrInsufficientSpaces
}

func (c *PgCatalog) Release(ctx context.Context, id, qty int) error {
	ct, err := c.DB.Exec(ctx, `UPDATE lessons SET spaces = spaces + $2 WHERE id=$1`, id, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrLessonNotFound
	}
	return nil
}
