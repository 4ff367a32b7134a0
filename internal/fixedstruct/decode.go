package fixedstruct

// Handle is an owned, heap-allocated record: the raw bytes of one fixed
// layout plus the tag identifying how to interpret them. Handles are
// produced by Decode and are cheap to copy by value (all layouts are
// POD-shaped, so a Handle's raw slice is never mutated after decode).
type Handle struct {
	tag VariantTag
	raw []byte
}

// Tag reports which layout this handle was decoded as.
func (h *Handle) Tag() VariantTag { return h.tag }

// Size reports the handle's record size in bytes (always Size(h.Tag())).
func (h *Handle) Size() int { return len(h.raw) }

// Decode performs the Raw Decoder's pre-filter and, on success, returns an
// owning Handle over a copy of buffer[:Size(variant)]. It never reads past
// variant's declared size and never assumes buffer is aligned: every field
// access later goes through explicit offset reads, never a pointer cast.
//
// Decode returns ok=false (not an error) for three cases spec.md treats as
// "not a record, but not a malformed one either": a short buffer, an
// all-zero slot, and an all-0xFF erased slot.
func Decode(buffer []byte, variant VariantTag) (*Handle, bool) {
	size := Size(variant)
	if len(buffer) < size {
		return nil, false
	}
	record := buffer[:size]

	if allBytesEqual(record, 0x00) || allBytesEqual(record, 0xFF) {
		return nil, false
	}

	raw := make([]byte, size)
	copy(raw, record)
	return &Handle{tag: variant, raw: raw}, true
}

func allBytesEqual(b []byte, v byte) bool {
	for _, c := range b {
		if c != v {
			return false
		}
	}
	return true
}
