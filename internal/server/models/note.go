package models

import "time"

type Note struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Color     string    `json:"color"`
	Image     *string   `json:"image"`
	Pinned    bool      `json:"pinned"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteInput carries the fields accepted when a note is created. The image
// is attached separately as an upload.
type NoteInput struct {
	Title string
	Body  string
	Color string
}

// NotePatch is a partial update. A nil field is left unchanged. Image is
// doubly optional: SetImage says the field was supplied, Image == nil then
// clears it.
type NotePatch struct {
	Title    *string
	Body     *string
	Color    *string
	SetImage bool
	Image    *string
	Pinned   *bool
	Archived *bool
}

// Empty reports whether no recognised field is present.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Body == nil && p.Color == nil && !p.SetImage &&
		p.Pinned == nil && p.Archived == nil
}
