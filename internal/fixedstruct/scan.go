package fixedstruct

import (
	"errors"
	"time"
)

// ErrNoCandidate is returned by ScanFile when no registered variant's
// size evenly divides the file, or no candidate decodes a single record.
// spec.md §4.5 treats this as "reject the file entirely as unparseable
// fixed-struct."
var ErrNoCandidate = errors.New("fixedstruct: no candidate variant for this file")

// DecodedEntry binds a Record Handle to its originating file offset, the
// variant it was decoded as, and both derived time representations: the
// DateTime a human reads and the Time Pair used for ordering. The two
// always describe the same instant modulo timezone offset; Time Pair is
// the canonical comparison key (spec.md §3, Decoded Entry).
type DecodedEntry struct {
	Offset   int64
	Tag      VariantTag
	Handle   *Handle
	DateTime time.Time
	Time     TimePair
}

// ScanFile walks data as a flat array of fixed-size records of a single
// variant, chosen once via Candidates/Choose from the first maxRecords
// decodable records and then applied for the rest of the file. Records
// that fail Decode's pre-filter (short, all-zero, all-0xFF) are skipped
// without aborting the scan; spec.md treats those as empty slots, not
// errors.
func ScanFile(data []byte, hint NamingHint, tzOffsetSeconds int) ([]DecodedEntry, error) {
	set, ok := Candidates(int64(len(data)), hint)
	if !ok {
		return nil, ErrNoCandidate
	}

	const maxRecordsForChoice = 64
	tag, ok := Choose(data, set, hint, maxRecordsForChoice)
	if !ok {
		return nil, ErrNoCandidate
	}

	size := Size(tag)
	entries := make([]DecodedEntry, 0, len(data)/size)
	for offset := 0; offset+size <= len(data); offset += size {
		buf := data[offset : offset+size]
		h, ok := Decode(buf, tag)
		if !ok {
			continue
		}
		tp, ok := ExtractTime(buf, tag)
		if !ok {
			continue
		}
		dt, err := ToDateTime(tp, tzOffsetSeconds)
		if err != nil {
			continue
		}
		entries = append(entries, DecodedEntry{
			Offset:   int64(offset),
			Tag:      tag,
			Handle:   h,
			DateTime: dt,
			Time:     tp,
		})
	}
	return entries, nil
}
