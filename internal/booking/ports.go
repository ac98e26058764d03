package booking

import (
	"context"
	"errors"
)

var (
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrInsufficientSpaces = errors.New("insufficient spaces")
	ErrOrderNotFound      = errors.New("order not found")
)

// Catalog adalah storage lesson. Reserve adalah satu-satunya primitive yang
// boleh mengurangi Spaces di order path: cek spaces >= qty dan decrement
// sebagai satu step atomik (tidak ada state antara yang bisa diobservasi).
// Release hanya dipakai engine untuk rollback.
type Catalog interface {
	Get(ctx context.Context, id int) (Lesson, error)
	// GetMany: id yang tidak ketemu di-skip tanpa error; caller bandingkan
	// cardinality untuk deteksi missing.
	GetMany(ctx context.Context, ids []int) (map[int]Lesson, error)
	ListAll(ctx context.Context) ([]Lesson, error)
	// SetSpaces: set unconditional, last-write-wins. Admin path, bukan bagian
	// protocol reservasi.
	SetSpaces(ctx context.Context, id, spaces int) (Lesson, error)
	Reserve(ctx context.Context, id, qty int) error
	Release(ctx context.Context, id, qty int) error
}

// Ledger: append-only. Append meng-assign OrderID dan harus durable sebelum
// return; order tidak pernah di-update atau di-delete.
type Ledger interface {
	Append(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, orderID string) (Order, error)
}
