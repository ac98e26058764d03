package booking

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventSpacesAdjusted = "SpacesAdjusted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "booking-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id / lesson id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type OrderPlacedPayload struct {
	OrderID      string      `json:"order_id"`
	CustomerName string      `json:"customer_name"`
	LineItems    []OrderLine `json:"line_items"`
	TotalCents   int         `json:"total_cents"`
}

type SpacesAdjustedPayload struct {
	LessonID  int `json:"lesson_id"`
	OldSpaces int `json:"old_spaces"`
	NewSpaces int `json:"new_spaces"`
}
