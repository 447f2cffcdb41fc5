package minihttp

// handle is the small integer key shared by three views of a connection:
// the slab array index, the token handed back to the user, and the
// event identifier echoed verbatim by the poller. Recycled on removal.
type handle uint32

// slotKind tags which variant a slab slot holds.
type slotKind uint8

const (
	slotListener slotKind = iota
	slotStream
)

// slot is a tagged sum type: listener and stream slots share one slab
// rather than living in separate collections.
type slot struct {
	kind slotKind
	fd   int

	// stream-only fields, populated when kind == slotStream.
	reader      *streamReader
	requestHead *requestHead
	response    *preparedResponse
	doneReading bool
	writeCursor int
}

// initialSlabCapacity is the slab's starting size; it grows on demand
// past this.
const initialSlabCapacity = 1024

// slab is a dense array of slots keyed by handle, with a freelist of
// recycled handles. It never shrinks.
type slab struct {
	slots    []*slot
	freelist []handle
}

func newSlab() *slab {
	return &slab{slots: make([]*slot, 0, initialSlabCapacity)}
}

// insert stores s at a handle (recycled if available, appended
// otherwise) and returns that handle.
func (s *slab) insert(st *slot) handle {
	if n := len(s.freelist); n > 0 {
		h := s.freelist[n-1]
		s.freelist = s.freelist[:n-1]
		s.slots[h] = st
		return h
	}
	s.slots = append(s.slots, st)
	return handle(len(s.slots) - 1)
}

// remove takes the slot at h out of the slab, marking h free for reuse,
// and returns it. Panics if h is out of range or already empty — the
// event loop's remove-then-reinsert-or-drop discipline should make that
// unreachable.
func (s *slab) remove(h handle) *slot {
	st := s.slots[h]
	if st == nil {
		panic("minihttp: slab.remove on empty handle")
	}
	s.slots[h] = nil
	s.freelist = append(s.freelist, h)
	return st
}

// get returns the slot at h without removing it, or nil if h is empty or
// out of range. Used only for diagnostics; the event loop's hot path
// always goes through remove.
func (s *slab) get(h handle) *slot {
	if int(h) >= len(s.slots) {
		return nil
	}
	return s.slots[h]
}
