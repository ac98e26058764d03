package booking

import "fmt"

// Kind membedakan rejection yang bisa di-retry (insufficient_spaces) dari
// kesalahan caller (invalid_request, lesson_not_found) dan fault storage.
type Kind string

const (
	KindInvalidRequest     Kind = "invalid_request"
	KindLessonNotFound     Kind = "lesson_not_found"
	KindInsufficientSpaces Kind = "insufficient_spaces"
	KindStorage            Kind = "storage"
)

// Error: rejection terstruktur dari engine. LessonID = 0 kalau tidak relevan
// (misal invalid_request tanpa lesson spesifik).
type Error struct {
	Kind     Kind
	LessonID int
	Msg      string
}

func (e *Error) Error() string {
	if e.LessonID != 0 {
		return fmt.Sprintf("%s: lesson %d: %s", e.Kind, e.LessonID, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Msg: fmt.Sprintf(format, args...)}
}

func lessonNotFound(id int) *Error {
	return &Error{Kind: KindLessonNotFound, LessonID: id, Msg: "lesson does not exist"}
}

func insufficientSpaces(id, requested, available int) *Error {
	return &Error{
		Kind:     KindInsufficientSpaces,
		LessonID: id,
		Msg:      fmt.Sprintf("requested %d, available %d", requested, available),
	}
}

func storageFault(err error) *Error {
	return &Error{Kind: KindStorage, Msg: err.Error()}
}
