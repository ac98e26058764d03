package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Engine menjalankan protocol reservasi: resolve -> reserve all-or-nothing ->
// commit ke ledger. Invariant: total decrement yang ter-commit untuk satu
// lesson tidak pernah melebihi kapasitas awalnya, berapapun request concurrent.
type Engine struct {
	Catalog Catalog
	Ledger  Ledger
	Log     *zap.Logger
}

func NewEngine(c Catalog, l Ledger, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Catalog: c, Ledger: l, Log: log}
}

// PlaceOrder: satu request order jadi Order committed atau *Error.
// Duplicate lesson dalam satu request di-coalesce jadi satu qty gabungan,
// supaya capacity check tetap single-shot per lesson.
func (e *Engine) PlaceOrder(ctx context.Context, req OrderRequest) (Order, error) {
	lines, err := coalesce(req)
	if err != nil {
		return Order{}, err
	}

	// 1) Resolve. Belum ada mutasi sama sekali di step ini.
	ids := make([]int, 0, len(lines))
	for _, ln := range lines {
		ids = append(ids, ln.LessonID)
	}
	found, err := e.Catalog.GetMany(ctx, ids)
	if err != nil {
		return Order{}, storageFault(fmt.Errorf("resolve lessons: %w", err))
	}
	if len(found) != len(ids) {
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return Order{}, lessonNotFound(id)
			}
		}
	}

	// 2) Reserve ascending by lesson id (urutan lock deterministik).
	// Kalau ada yang gagal, release semua yang sudah diambil -> tidak ada
	// partial reservation yang bisa diobservasi caller lain.
	reserved := make([]LineInput, 0, len(lines))
	for _, ln := range lines {
		if err := e.Catalog.Reserve(ctx, ln.LessonID, ln.Quantity); err != nil {
			rbErr := e.rollback(ctx, reserved)
			switch {
			case rbErr != nil:
				// Rollback gagal = kapasitas bisa bocor permanen. Surface,
				// jangan ditelan.
				return Order{}, storageFault(fmt.Errorf("reserve lesson %d: %v; rollback failed: %w", ln.LessonID, err, rbErr))
			case errors.Is(err, ErrInsufficientSpaces):
				return Order{}, insufficientSpaces(ln.LessonID, ln.Quantity, found[ln.LessonID].Spaces)
			case errors.Is(err, ErrLessonNotFound):
				// Lesson hilang di antara resolve dan reserve (admin delete);
				// perlakukan sama dengan gagal resolve.
				return Order{}, lessonNotFound(ln.LessonID)
			default:
				return Order{}, storageFault(fmt.Errorf("reserve lesson %d: %w", ln.LessonID, err))
			}
		}
		reserved = append(reserved, ln)
	}

	// 3) Commit. Snapshot pakai nilai hasil resolve (price tidak di-re-read
	// setelah reserve, jadi tidak bisa geser mid-transaction).
	o := Order{
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
		LineItems:    make([]OrderLine, 0, len(lines)),
		CreatedAt:    time.Now().UTC(),
	}
	for _, ln := range lines {
		l := found[ln.LessonID]
		o.LineItems = append(o.LineItems, OrderLine{
			LessonID:   l.ID,
			Subject:    l.Subject,
			Location:   l.Location,
			PriceCents: l.PriceCents,
			Quantity:   ln.Quantity,
		})
		o.TotalCents += l.PriceCents * ln.Quantity
	}

	committed, err := e.Ledger.Append(ctx, o)
	if err != nil {
		rbErr := e.rollback(ctx, reserved)
		if rbErr != nil {
			return Order{}, storageFault(fmt.Errorf("append order: %v; rollback failed: %w", err, rbErr))
		}
		return Order{}, storageFault(fmt.Errorf("append order: %w", err))
	}

	e.Log.Info("order committed",
		zap.String("order_id", committed.OrderID),
		zap.Int("lines", len(committed.LineItems)),
		zap.Int("total_cents", committed.TotalCents),
	)
	return committed, nil
}

// rollback re-credit semua reservasi yang sudah diambil request ini, urutan
// kebalikan dari pengambilannya.
func (e *Engine) rollback(ctx context.Context, reserved []LineInput) error {
	for i := len(reserved) - 1; i >= 0; i-- {
		ln := reserved[i]
		if err := e.Catalog.Release(ctx, ln.LessonID, ln.Quantity); err != nil {
			e.Log.Error("rollback release failed",
				zap.Int("lesson_id", ln.LessonID),
				zap.Int("quantity", ln.Quantity),
				zap.Error(err),
			)
			return fmt.Errorf("release lesson %d: %w", ln.LessonID, err)
		}
	}
	return nil
}

// coalesce validasi request dan gabungkan duplicate lesson id jadi satu line,
// hasil sorted ascending by lesson id.
func coalesce(req OrderRequest) ([]LineInput, error) {
	if req.CustomerName == "" {
		return nil, invalidRequest("customer_name is required")
	}
	if req.PhoneNumber == "" {
		return nil, invalidRequest("phone_number is required")
	}
	if len(req.LineItems) == 0 {
		return nil, invalidRequest("line_items must not be empty")
	}

	byID := make(map[int]int, len(req.LineItems))
	for _, ln := range req.LineItems {
		if ln.Quantity <= 0 {
			return nil, invalidRequest("quantity for lesson %d must be > 0", ln.LessonID)
		}
		byID[ln.LessonID] += ln.Quantity
	}

	out := make([]LineInput, 0, len(byID))
	for id, qty := range byID {
		out = append(out, LineInput{LessonID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessonID < out[j].LessonID })
	return out, nil
}
