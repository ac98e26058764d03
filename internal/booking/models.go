package booking

import "time"

// Lesson adalah entry katalog yang bisa dibooking. Spaces = sisa kapasitas,
// hanya boleh berubah lewat Catalog.Reserve/Release (order path) atau
// Catalog.SetSpaces (admin path).
type Lesson struct {
	ID         int    `json:"id"`
	Subject    string `json:"subject"`
	Location   string `json:"location"`
	PriceCents int    `json:"price_cents"`
	Spaces     int    `json:"spaces"`
}

// LineInput: satu baris request order dari client. Qty harus > 0.
type LineInput struct {
	LessonID int `json:"lesson_id"`
	Quantity int `json:"quantity"`
}

// OrderRequest: input transient, tidak pernah dipersist.
type OrderRequest struct {
	CustomerName string      `json:"customer_name"`
	PhoneNumber  string      `json:"phone_number"`
	LineItems    []LineInput `json:"line_items"`
}

// OrderLine adalah snapshot satu lesson pada saat commit. Subject/location/price
// diambil dari katalog saat resolve, jadi edit katalog belakangan tidak mengubah
// order lama.
type OrderLine struct {
	LessonID   int    `json:"lesson_id"`
	Subject    string `json:"subject"`
	Location   string `json:"location"`
	PriceCents int    `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

// Order: record immutable hasil commit. LineItems selalu ascending by lesson id
// (urutan deterministik engine). TotalCents dihitung sekali dari snapshot.
type Order struct {
	OrderID      string      `json:"order_id"`
	CustomerName string      `json:"customer_name"`
	PhoneNumber  string      `json:"phone_number"`
	LineItems    []OrderLine `json:"line_items"`
	TotalCents   int         `json:"total_cents"`
	CreatedAt    time.Time   `json:"created_at"`
}
