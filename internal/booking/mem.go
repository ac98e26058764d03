package booking

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemCatalog: Catalog in-memory dengan lock per lesson, dipakai tests dan mode
// dev tanpa Postgres. Lock per item = reservasi di lesson berbeda jalan
// paralel tanpa contention (setara row lock di PgCatalog).
type MemCatalog struct {
	mu      sync.RWMutex
	lessons map[int]*memLesson
}

type memLesson struct {
	mu sync.Mutex
	l  Lesson
}

func NewMemCatalog(seed ...Lesson) *MemCatalog {
	c := &MemCatalog{lessons: make(map[int]*memLesson, len(seed))}
	for _, l := range seed {
		c.lessons[l.ID] = &memLesson{l: l}
	}
	return c
}

func (c *MemCatalog) find(id int) (*memLesson, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ml, ok := c.lessons[id]
	return ml, ok
}

func (c *MemCatalog) Get(ctx context.Context, id int) (Lesson, error) {
	ml, ok := c.find(id)
	if !ok {
		return Lesson{}, ErrLessonNotFound
	}
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.l, nil
}

func (c *MemCatalog) GetMany(ctx context.Context, ids []int) (map[int]Lesson, error) {
	out := make(map[int]Lesson, len(ids))
	for _, id := range ids {
		l, err := c.Get(ctx, id)
		if err != nil {
			continue // id tidak ketemu: skip, caller cek cardinality
		}
		out[id] = l
	}
	return out, nil
}

func (c *MemCatalog) ListAll(ctx context.Context) ([]Lesson, error) {
	c.mu.RLock()
	out := make([]Lesson, 0, len(c.lessons))
	for _, ml := range c.lessons {
		ml.mu.Lock()
		out = append(out, ml.l)
		ml.mu.Unlock()
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *MemCatalog) SetSpaces(ctx context.Context, id, spaces int) (Lesson, error) {
	ml, ok := c.find(id)
	if !ok {
		return Lesson{}, ErrLessonNotFound
	}
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.l.Spaces = spaces
	return ml.l, nil
}

func (c *MemCatalog) Reserve(ctx context.Context, id, qty int) error {
	ml, ok := c.find(id)
	if !ok {
		return ErrLessonNotFound
	}
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.l.Spaces < qty {
		return ErrInsufficientSpaces
	}
	ml.l.Spaces -= qty
	return nil
}

func (c *MemCatalog) Release(ctx context.Context, id, qty int) error {
	ml, ok := c.find(id)
	if !ok {
		return ErrLessonNotFound
	}
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.l.Spaces += qty
	return nil
}

// Put upsert satu lesson (seed data & tests).
func (c *MemCatalog) Put(l Lesson) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ml, ok := c.lessons[l.ID]; ok {
		ml.mu.Lock()
		ml.l = l
		ml.mu.Unlock()
		return
	}
	c.lessons[l.ID] = &memLesson{l: l}
}

// MemLedger: append-only in-memory, write serialized lewat satu mutex.
type MemLedger struct {
	mu     sync.Mutex
	orders map[string]Order
}

func NewMemLedger() *MemLedger {
	return &MemLedger{orders: make(map[string]Order)}
}

func (g *MemLedger) Append(ctx context.Context, o Order) (Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o.OrderID = uuid.NewString()
	// copy line items supaya snapshot tersimpan tidak sharing backing array
	// dengan slice milik caller
	lines := make([]OrderLine, len(o.LineItems))
	copy(lines, o.LineItems)
	o.LineItems = lines
	g.orders[o.OrderID] = o
	return o, nil
}

func (g *MemLedger) Get(ctx context.Context, orderID string) (Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	lines := make([]OrderLine, len(o.LineItems))
	copy(lines, o.LineItems)
	o.LineItems = lines
	return o, nil
}
