package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-lesson-booking.git/internal/booking"
	kafkax "github.com/ariefcatur/go-lesson-booking.git/internal/kafka"
	"github.com/ariefcatur/go-lesson-booking.git/internal/metrics"
	"github.com/ariefcatur/go-lesson-booking.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// BookingHandler: routing layer tipis di atas engine + catalog + ledger.
// Redis dan producer boleh nil (mode dev/test) — semua side effect non-core
// dijaga optional, Postgres/engine tetap jadi kebenaran.
type BookingHandler struct {
	Engine         *booking.Engine
	Catalog        booking.Catalog
	Ledger         booking.Ledger
	PlacedProducer *kafkax.Producer
	AdjustProducer *kafkax.Producer
	Redis          *redis.Client
	Metrics        *metrics.Metrics
	Log            *zap.Logger
	Service        string
}

type adjustSpacesReq struct {
	Spaces *int `json:"spaces"`
}

type errorResp struct {
	Kind     string `json:"kind"`
	LessonID int    `json:"lesson_id,omitempty"`
	Error    string `json:"error"`
}

func (h *BookingHandler) Register(r *chi.Mux) {
	r.Get("/lessons", h.listLessons)
	r.Get("/lessons/search", h.searchLessons)
	r.Get("/lessons/{id}", h.getLesson)
	r.Put("/lessons/{id}/spaces", h.adjustSpaces)
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor map taxonomy rejection ke status HTTP.
func statusFor(k booking.Kind) int {
	switch k {
	case booking.KindInvalidRequest:
		return http.StatusBadRequest
	case booking.KindLessonNotFound:
		return http.StatusNotFound
	case booking.KindInsufficientSpaces:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *BookingHandler) writeBookingErr(w http.ResponseWriter, err error) {
	var be *booking.Error
	if errors.As(err, &be) {
		if h.Metrics != nil {
			h.Metrics.OrdersRejectedTotal.WithLabelValues(string(be.Kind)).Inc()
		}
		writeJSON(w, statusFor(be.Kind), errorResp{Kind: string(be.Kind), LessonID: be.LessonID, Error: be.Msg})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResp{Kind: string(booking.KindStorage), Error: err.Error()})
}

func (h *BookingHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req booking.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Kind: string(booking.KindInvalidRequest), Error: "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.PlaceOrder(ctx, req)
	if err != nil {
		h.writeBookingErr(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.OrdersPlacedTotal.Inc()
	}

	// cache snapshot order supaya GET berikutnya murah
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrder, o.OrderID)
		_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(o), redisx.TTLOrderCache).Err()
		_ = h.Redis.Del(ctx, redisx.KeyLessonList).Err()
	}

	// publish event (envelope v1)
	if h.PlacedProducer != nil {
		ev := booking.Envelope{
			EventID:       uuid.NewString(),
			EventType:     booking.EventOrderPlaced,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Service,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: o.OrderID,
			Payload: kafkax.MustMarshal(booking.OrderPlacedPayload{
				OrderID:      o.OrderID,
				CustomerName: o.CustomerName,
				LineItems:    o.LineItems,
				TotalCents:   o.TotalCents,
			}),
		}
		h.PlacedProducer.Publish(booking.PartitionKey(o.OrderID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(booking.EventOrderPlaced)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	writeJSON(w, http.StatusCreated, o)
}

func (h *BookingHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrder, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	// 2) fallback ledger
	o, err := h.Ledger.Get(ctx, orderID)
	if errors.Is(err, booking.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp{Kind: "order_not_found", Error: "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp{Kind: string(booking.KindStorage), Error: err.Error()})
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(o), redisx.TTLOrderCache).Err()
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *BookingHandler) listLessons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, redisx.KeyLessonList).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	ls, err := h.Catalog.ListAll(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp{Kind: string(booking.KindStorage), Error: err.Error()})
		return
	}
	if ls == nil {
		ls = []booking.Lesson{}
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, redisx.KeyLessonList, kafkax.MustMarshal(ls), redisx.TTLLessonList).Err()
	}
	writeJSON(w, http.StatusOK, ls)
}

func (h *BookingHandler) getLesson(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Kind: string(booking.KindInvalidRequest), Error: "id must be an integer"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	l, err := h.Catalog.Get(ctx, id)
	if errors.Is(err, booking.ErrLessonNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp{Kind: string(booking.KindLessonNotFound), LessonID: id, Error: "lesson does not exist"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp{Kind: string(booking.KindStorage), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *BookingHandler) searchLessons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ls, err := h.Catalog.ListAll(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp{Kind: string(booking.KindStorage), Error: err.Error()})
		return
	}
	out := booking.Filter(ls, r.URL.Query().Get("q"))
	if out == nil {
		out = []booking.Lesson{}
	}
	writeJSON(w, http.StatusOK, out)
}

// adjustSpaces: set kapasitas unconditional (admin path, last-write-wins).
// Boleh turun di bawah total yang sudah pernah di-reserve; dilog dengan
// old/new supaya adjustment kayak gitu kelihatan di audit trail.
func (h *BookingHandler) adjustSpaces(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Kind: string(booking.KindInvalidRequest), Error: "id must be an integer"})
		return
	}
	var req adjustSpacesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Spaces == nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Kind: string(booking.KindInvalidRequest), Error: "spaces is required"})
		return
	}
	if *req.Spaces < 0 {
		writeJSON(w, http.StatusBadRequest, errorResp{Kind: string(booking.KindInvalidRequest), Error: "spaces must be >= 0"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	old, err := h.Catalog.Get(ctx, id)
	if errors.Is(err, booking.ErrLessonNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp{Kind: string(booking.KindLessonNotFound), LessonID: id, Error: "lesson does not exist"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp{Kind: string(booking.KindStorage), Error: err.Error()})
		return
	}

	l, err := h.Catalog.SetSpaces(ctx, id, *req.Spaces)
	if errors.Is(err, booking.ErrLessonNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp{Kind: string(booking.KindLessonNotFound), LessonID: id, Error: "lesson does not exist"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp{Kind: string(booking.KindStorage), Error: err.Error()})
		return
	}

	if h.Log != nil {
		h.Log.Info("spaces adjusted",
			zap.Int("lesson_id", id),
			zap.Int("old_spaces", old.Spaces),
			zap.Int("new_spaces", l.Spaces),
		)
	}
	if h.Metrics != nil {
		h.Metrics.SpacesAdjustedTotal.Inc()
	}
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, redisx.KeyLessonList).Err()
	}
	if h.AdjustProducer != nil {
		ev := booking.Envelope{
			EventID:       uuid.NewString(),
			EventType:     booking.EventSpacesAdjusted,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Service,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: strconv.Itoa(id),
			Payload: kafkax.MustMarshal(booking.SpacesAdjustedPayload{
				LessonID:  id,
				OldSpaces: old.Spaces,
				NewSpaces: l.Spaces,
			}),
		}
		h.AdjustProducer.Publish(booking.PartitionKey(strconv.Itoa(id)), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(booking.EventSpacesAdjusted)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	writeJSON(w, http.StatusOK, l)
}
