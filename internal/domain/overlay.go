package domain

// Overlay is the client-local modification layer kept for one session scope:
// edited fields per user id and the ids marked deleted.
type Overlay struct {
	Edits   map[int64]UserFields
	Deleted []int64
}

// NewOverlay returns an empty overlay.
func NewOverlay() Overlay {
	return Overlay{Edits: make(map[int64]UserFields)}
}

// IsDeleted reports whether id is in the deletion overlay.
func (o Overlay) IsDeleted(id int64) bool {
	for _, d := range o.Deleted {
		if d == id {
			return true
		}
	}
	return false
}

// Edit returns the edit entry for id, if any.
func (o Overlay) Edit(id int64) (UserFields, bool) {
	f, ok := o.Edits[id]
	return f, ok
}

// ApplyEdit writes or overwrites the edit entry for id.
func (o *Overlay) ApplyEdit(id int64, fields UserFields) {
	if o.Edits == nil {
		o.Edits = make(map[int64]UserFields)
	}
	o.Edits[id] = fields
}

// MarkDeleted drops any edit entry for id and records it as deleted.
// Marking an id twice keeps a single entry.
func (o *Overlay) MarkDeleted(id int64) {
	delete(o.Edits, id)
	if o.IsDeleted(id) {
		return
	}
	o.Deleted = append(o.Deleted, id)
}

// Reset clears both overlays.
func (o *Overlay) Reset() {
	o.Edits = make(map[int64]UserFields)
	o.Deleted = nil
}

// Empty reports whether the overlay carries no modifications.
func (o Overlay) Empty() bool {
	return len(o.Edits) == 0 && len(o.Deleted) == 0
}

// Clone returns a deep copy.
func (o Overlay) Clone() Overlay {
	out := Overlay{
		Edits:   make(map[int64]UserFields, len(o.Edits)),
		Deleted: append([]int64(nil), o.Deleted...),
	}
	for id, f := range o.Edits {
		out.Edits[id] = f
	}
	return out
}
