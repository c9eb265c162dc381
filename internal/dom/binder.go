package dom

// Binder associates data-model record IDs with element IDs as a
// two-way lookup. Keeping the association out of the objects
// themselves means records and elements never hold references to each
// other, so a released or destroyed element can never pin a record
// alive (nor the reverse).
type Binder struct {
	byRecord  map[string]string
	byElement map[string]string
}

// NewBinder returns an empty Binder.
func NewBinder() *Binder {
	return &Binder{
		byRecord:  make(map[string]string),
		byElement: make(map[string]string),
	}
}

// Bind associates a record with an element, replacing any previous
// association on either side.
func (b *Binder) Bind(recordID, elementID string) {
	if prev, ok := b.byRecord[recordID]; ok {
		delete(b.byElement, prev)
	}
	if prev, ok := b.byElement[elementID]; ok {
		delete(b.byRecord, prev)
	}
	b.byRecord[recordID] = elementID
	b.byElement[elementID] = recordID
}

// ElementFor returns the element ID bound to a record.
func (b *Binder) ElementFor(recordID string) (string, bool) {
	id, ok := b.byRecord[recordID]
	return id, ok
}

// RecordFor returns the record ID bound to an element.
func (b *Binder) RecordFor(elementID string) (string, bool) {
	id, ok := b.byElement[elementID]
	return id, ok
}

// UnbindRecord drops a record's association.
func (b *Binder) UnbindRecord(recordID string) {
	if el, ok := b.byRecord[recordID]; ok {
		delete(b.byRecord, recordID)
		delete(b.byElement, el)
	}
}

// UnbindElement drops an element's association.
func (b *Binder) UnbindElement(elementID string) {
	if rec, ok := b.byElement[elementID]; ok {
		delete(b.byElement, elementID)
		delete(b.byRecord, rec)
	}
}

// Len returns the number of associations.
func (b *Binder) Len() int {
	return len(b.byRecord)
}
