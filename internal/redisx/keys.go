package redisx

import "time"

const (
	// Cache listing katalog: lessons:all -> JSON array
	KeyLessonList = "lessons:all"

	// Cache snapshot order: order:{order_id} -> JSON Order
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLLessonList = 30 * time.Second
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
