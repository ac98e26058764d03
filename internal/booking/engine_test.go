package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(lessons ...Lesson) (*Engine, *MemCatalog, *MemLedger) {
	cat := NewMemCatalog(lessons...)
	led := NewMemLedger()
	return NewEngine(cat, led, nil), cat, led
}

func validReq(lines ...LineInput) OrderRequest {
	return OrderRequest{
		CustomerName: "Ayu Lestari",
		PhoneNumber:  "0811223344",
		LineItems:    lines,
	}
}

func TestPlaceOrder_Commit(t *testing.T) {
	eng, cat, led := newTestEngine(
		Lesson{ID: 1, Subject: "Math", Location: "London", PriceCents: 2000, Spaces: 5},
		Lesson{ID: 2, Subject: "Music", Location: "Bristol", PriceCents: 3000, Spaces: 4},
	)
	ctx := context.Background()

	o, err := eng.PlaceOrder(ctx, validReq(
		LineInput{LessonID: 2, Quantity: 1},
		LineInput{LessonID: 1, Quantity: 2},
	))
	require.NoError(t, err)
	require.NotEmpty(t, o.OrderID)

	// line items ascending by lesson id, snapshot dari katalog
	require.Len(t, o.LineItems, 2)
	assert.Equal(t, 1, o.LineItems[0].LessonID)
	assert.Equal(t, "Math", o.LineItems[0].Subject)
	assert.Equal(t, "London", o.LineItems[0].Location)
	assert.Equal(t, 2, o.LineItems[0].Quantity)
	assert.Equal(t, 2, o.LineItems[1].LessonID)
	assert.Equal(t, 2*2000+1*3000, o.TotalCents)

	// read-after-write: spaces langsung kelihatan turun
	l1, err := cat.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, l1.Spaces)
	l2, err := cat.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, l2.Spaces)

	// snapshot di ledger identik dengan yang di-return
	got, err := led.Get(ctx, o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, o, got)
}

func TestPlaceOrder_InvalidRequest(t *testing.T) {
	eng, cat, _ := newTestEngine(Lesson{ID: 1, Subject: "Math", Spaces: 5})
	ctx := context.Background()

	cases := []struct {
		name string
		req  OrderRequest
	}{
		{"missing customer name", OrderRequest{PhoneNumber: "08", LineItems: []LineInput{{LessonID: 1, Quantity: 1}}}},
		{"missing phone", OrderRequest{CustomerName: "A", LineItems: []LineInput{{LessonID: 1, Quantity: 1}}}},
		{"empty line items", OrderRequest{CustomerName: "A", PhoneNumber: "08"}},
		{"zero quantity", validReq(LineInput{LessonID: 1, Quantity: 0})},
		{"negative quantity", validReq(LineInput{LessonID: 1, Quantity: -2})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.PlaceOrder(ctx, tc.req)
			var be *Error
			require.ErrorAs(t, err, &be)
			assert.Equal(t, KindInvalidRequest, be.Kind)
		})
	}

	// store tidak pernah disentuh
	l, err := cat.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, l.Spaces)
}

func TestPlaceOrder_LessonNotFound(t *testing.T) {
	eng, cat, _ := newTestEngine(Lesson{ID: 1, Subject: "Math", Spaces: 5})
	ctx := context.Background()

	_, err := eng.PlaceOrder(ctx, validReq(
		LineInput{LessonID: 1, Quantity: 1},
		LineInput{LessonID: 99, Quantity: 1},
	))
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindLessonNotFound, be.Kind)
	assert.Equal(t, 99, be.LessonID)

	// tidak ada kapasitas yang berubah di manapun
	l, err := cat.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, l.Spaces)
}

func TestPlaceOrder_InsufficientRollsBack(t *testing.T) {
	// [(A ok), (B kelebihan)] -> net change nol di A, nol order dibuat
	eng, cat, _ := newTestEngine(
		Lesson{ID: 1, Subject: "Math", Spaces: 5},
		Lesson{ID: 2, Subject: "Music", Spaces: 2},
	)
	ctx := context.Background()

	_, err := eng.PlaceOrder(ctx, validReq(
		LineInput{LessonID: 1, Quantity: 3},
		LineInput{LessonID: 2, Quantity: 3},
	))
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindInsufficientSpaces, be.Kind)
	assert.Equal(t, 2, be.LessonID)

	l1, _ := cat.Get(ctx, 1)
	l2, _ := cat.Get(ctx, 2)
	assert.Equal(t, 5, l1.Spaces, "rollback harus mengembalikan decrement di lesson 1")
	assert.Equal(t, 2, l2.Spaces)
}

func TestPlaceOrder_ExactCapacityThenReject(t *testing.T) {
	eng, cat, _ := newTestEngine(Lesson{ID: 1, Subject: "Math", PriceCents: 2000, Spaces: 5})
	ctx := context.Background()

	o, err := eng.PlaceOrder(ctx, validReq(LineInput{LessonID: 1, Quantity: 5}))
	require.NoError(t, err)
	assert.Equal(t, 5*2000, o.TotalCents)

	l, _ := cat.Get(ctx, 1)
	assert.Equal(t, 0, l.Spaces)

	// kapasitas nol: request 1 harus ditolak, bukan sukses dengan decrement nol
	_, err = eng.PlaceOrder(ctx, validReq(LineInput{LessonID: 1, Quantity: 1}))
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindInsufficientSpaces, be.Kind)
}

func TestPlaceOrder_CoalescesDuplicateLines(t *testing.T) {
	// lesson yang sama dua kali dalam satu request dievaluasi sebagai satu
	// check gabungan: 2+4=6 > 5 -> reject, bukan dua sub-reservasi yang
	// masing-masing lolos
	eng, cat, _ := newTestEngine(Lesson{ID: 1, Subject: "Math", Spaces: 5})
	ctx := context.Background()

	_, err := eng.PlaceOrder(ctx, validReq(
		LineInput{LessonID: 1, Quantity: 2},
		LineInput{LessonID: 1, Quantity: 4},
	))
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindInsufficientSpaces, be.Kind)

	l, _ := cat.Get(ctx, 1)
	assert.Equal(t, 5, l.Spaces)

	// total gabungan yang muat tetap jadi satu line
	o, err := eng.PlaceOrder(ctx, validReq(
		LineInput{LessonID: 1, Quantity: 2},
		LineInput{LessonID: 1, Quantity: 3},
	))
	require.NoError(t, err)
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, 5, o.LineItems[0].Quantity)
}

func TestPlaceOrder_PriceImmutableAfterCatalogEdit(t *testing.T) {
	eng, cat, led := newTestEngine(Lesson{ID: 1, Subject: "Math", PriceCents: 2000, Spaces: 5})
	ctx := context.Background()

	o, err := eng.PlaceOrder(ctx, validReq(LineInput{LessonID: 1, Quantity: 1}))
	require.NoError(t, err)

	// edit katalog setelah commit
	cat.Put(Lesson{ID: 1, Subject: "Math II", Location: "Leeds", PriceCents: 9900, Spaces: 4})

	got, err := led.Get(ctx, o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 2000, got.LineItems[0].PriceCents)
	assert.Equal(t, "Math", got.LineItems[0].Subject)
	assert.Equal(t, 2000, got.TotalCents)
}

func TestPlaceOrder_LedgerFailureRollsBackReservation(t *testing.T) {
	cat := NewMemCatalog(Lesson{ID: 1, Subject: "Math", Spaces: 5})
	eng := NewEngine(cat, failingLedger{}, nil)
	ctx := context.Background()

	_, err := eng.PlaceOrder(ctx, validReq(LineInput{LessonID: 1, Quantity: 3}))
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindStorage, be.Kind)

	l, _ := cat.Get(ctx, 1)
	assert.Equal(t, 5, l.Spaces, "reservasi harus di-release saat append gagal")
}

type failingLedger struct{}

func (failingLedger) Append(ctx context.Context, o Order) (Order, error) {
	return Order{}, errors.New("ledger down")
}
func (failingLedger) Get(ctx context.Context, id string) (Order, error) {
	return Order{}, ErrOrderNotFound
}

func TestPlaceOrder_NoOversellUnderConcurrency(t *testing.T) {
	const capacity = 50
	const attempts = 200
	eng, cat, _ := newTestEngine(Lesson{ID: 1, Subject: "Math", Spaces: capacity})
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.PlaceOrder(ctx, validReq(LineInput{LessonID: 1, Quantity: 3}))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, KindInsufficientSpaces, be.Kind)
	}

	l, _ := cat.Get(ctx, 1)
	assert.GreaterOrEqual(t, l.Spaces, 0, "spaces tidak boleh negatif")
	assert.Equal(t, capacity-wins*3, l.Spaces, "final spaces = C - sum(decrement sukses)")
	assert.LessOrEqual(t, wins*3, capacity)
}

func TestPlaceOrder_TwoConcurrentAgainstFive(t *testing.T) {
	// dua request qty 3 lawan spaces 5: tepat satu menang, sisa 2
	for iter := 0; iter < 50; iter++ {
		eng, cat, _ := newTestEngine(Lesson{ID: 1, Subject: "Math", Spaces: 5})
		ctx := context.Background()

		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := eng.PlaceOrder(ctx, validReq(LineInput{LessonID: 1, Quantity: 3}))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		wins := 0
		for err := range errs {
			if err == nil {
				wins++
			} else {
				var be *Error
				require.ErrorAs(t, err, &be)
				assert.Equal(t, KindInsufficientSpaces, be.Kind)
			}
		}
		require.Equal(t, 1, wins)

		l, _ := cat.Get(ctx, 1)
		assert.Equal(t, 2, l.Spaces)
	}
}

func TestPlaceOrder_DisjointLessonsInParallel(t *testing.T) {
	eng, cat, _ := newTestEngine(
		Lesson{ID: 1, Subject: "Math", Spaces: 100},
		Lesson{ID: 2, Subject: "Music", Spaces: 100},
	)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := eng.PlaceOrder(ctx, validReq(LineInput{LessonID: id, Quantity: 1}))
			assert.NoError(t, err)
		}(1 + i%2)
	}
	wg.Wait()

	l1, _ := cat.Get(ctx, 1)
	l2, _ := cat.Get(ctx, 2)
	assert.Equal(t, 50, l1.Spaces)
	assert.Equal(t, 50, l2.Spaces)
}
