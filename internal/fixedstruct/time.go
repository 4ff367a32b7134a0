package fixedstruct

import (
	"encoding/binary"
	"fmt"
	"time"
)

// TimePair is (seconds, microseconds) since the Unix epoch. usec is zero
// for layouts without sub-second precision. Ordering is lexicographic on
// (Sec, Usec); this is the canonical record ordering key (see Decoded
// Entry in SPEC_FULL.md §3).
type TimePair struct {
	Sec  int64
	Usec int64
}

// Less reports whether p sorts before o under the canonical ordering.
func (p TimePair) Less(o TimePair) bool {
	if p.Sec != o.Sec {
		return p.Sec < o.Sec
	}
	return p.Usec < o.Usec
}

// ExtractTime reads the variant's time field out of buffer and interprets
// it per the variant's TimeKind. buffer must be at least Size(variant)
// bytes; ok is false only if buffer is too short (malformed timestamp
// values are clamped, never rejected, per spec.md §4.4).
func ExtractTime(buffer []byte, variant VariantTag) (TimePair, bool) {
	off, width := TimeOffset(variant), TimeSize(variant)
	if len(buffer) < off+width {
		return TimePair{}, false
	}
	field := buffer[off : off+width]

	switch Kind(variant) {
	case SecondsOnly32:
		return TimePair{Sec: int64(int32(binary.LittleEndian.Uint32(field)))}, true
	case SecondsOnlyU32:
		return TimePair{Sec: int64(binary.LittleEndian.Uint32(field))}, true
	case SecondsOnly64:
		return TimePair{Sec: int64(binary.LittleEndian.Uint64(field))}, true
	case SecondsMicros32:
		sec := int64(int32(binary.LittleEndian.Uint32(field[0:4])))
		usec := int64(int32(binary.LittleEndian.Uint32(field[4:8])))
		return TimePair{Sec: sec, Usec: clampUsec(usec)}, true
	case SecondsMicros64:
		sec := int64(binary.LittleEndian.Uint64(field[0:8]))
		usec := int64(binary.LittleEndian.Uint64(field[8:16]))
		return TimePair{Sec: sec, Usec: clampUsec(usec)}, true
	default:
		panic("fixedstruct: unreachable TimeKind")
	}
}

// clampUsec implements spec.md §4.4's overflow policy: an out-of-range
// microsecond component is clamped to zero with sub-second precision
// loss accepted, never treated as a fatal decode error.
func clampUsec(usec int64) int64 {
	if usec < 0 || usec >= 1_000_000 {
		return 0
	}
	return usec
}

// ToDateTime converts a TimePair to a time.Time at the given fixed
// timezone offset (seconds east of UTC), per spec.md §4.4: usec becomes
// nanoseconds, and a non-representable Sec is retried once at Usec=0
// before giving up.
func ToDateTime(p TimePair, tzOffsetSeconds int) (time.Time, error) {
	loc := time.FixedZone("s4", tzOffsetSeconds)
	if dt, ok := secToTime(p.Sec, p.Usec, loc); ok {
		return dt, nil
	}
	if p.Usec != 0 {
		if dt, ok := secToTime(p.Sec, 0, loc); ok {
			return dt, nil
		}
	}
	return time.Time{}, fmt.Errorf("fixedstruct: time %d.%06d is not representable", p.Sec, p.Usec)
}

// secToTime never itself fails in Go (time.Unix has no representable-range
// limit worth rejecting for the epochs this package deals with); the hook
// exists so the retry-at-zero-usec policy above has a single call site to
// extend if a future platform needs one.
func secToTime(sec, usec int64, loc *time.Location) (time.Time, bool) {
	return time.Unix(sec, usec*1000).In(loc), true
}

// FromDateTime is ToDateTime's total reverse: Sec is the Unix timestamp,
// Usec is the sub-second microseconds, clamped to zero on overflow.
func FromDateTime(dt time.Time) TimePair {
	return TimePair{Sec: dt.Unix(), Usec: clampUsec(int64(dt.Nanosecond() / 1000))}
}
