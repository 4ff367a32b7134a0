package fixedstruct

// Score is a signed accumulator: higher means more likely the variant is
// correct. It never saturates in practice (bounded by record size times
// per-byte contribution).
type Score int32

// VariantSet maps a candidate VariantTag to the naming-hint bonus Score it
// should start scoring from. Candidates returns nil (and ok=false) if no
// registered variant's size evenly divides the file — spec.md §4.5 treats
// that as "reject the file entirely as unparseable fixed-struct."
type VariantSet map[VariantTag]Score

// namingBonus is the flat bonus a variant receives when its own naming
// hint matches the file's naming hint (spec.md §4.5).
const namingBonus Score = 15

// Candidates returns every variant whose record size evenly divides
// fileSize, each carrying namingBonus if its hint matches hint and zero
// otherwise.
func Candidates(fileSize int64, hint NamingHint) (VariantSet, bool) {
	if fileSize <= 0 {
		return nil, false
	}
	set := make(VariantSet)
	for _, tag := range AllVariants() {
		size := int64(Size(tag))
		if fileSize%size != 0 {
			continue
		}
		var bonus Score
		if Hint(tag) == hint {
			bonus = namingBonus
		}
		set[tag] = bonus
	}
	if len(set) == 0 {
		return nil, false
	}
	return set, true
}

// ScoreRecord applies the closed set of weighted heuristics from
// spec.md §4.5 to a decoded handle, starting from bonus (the caller's
// Candidates() result for this variant). Each variant's scorer applies
// only the heuristics relevant to its own fields.
func ScoreRecord(h *Handle, bonus Score) Score {
	score := bonus
	score += scoreTimestamp(h)

	switch shapeOf(h.tag) {
	case shapeLinuxUtmp:
		l := linuxUtmp
		score += scoreCString(h.raw, l.User)
		score += scoreCString(h.raw, l.Line)
		score += scoreCString(h.raw, l.Host)
		score += scorePadding(h.raw, l.Unused)
		score += scoreUtType(i16(h.raw, l.Type))
	case shapeBsdUtmpx:
		l := bsdUtmpx[h.tag]
		score += scoreCString(h.raw, l.User)
		score += scoreCString(h.raw, l.Line)
		score += scoreCString(h.raw, l.Host)
		score += scorePadding(h.raw, l.Spare)
		score += scoreUtType(int16(u8(h.raw, l.Type)))
	case shapeBsdUtmp:
		l := bsdUtmp[h.tag]
		score += scoreCString(h.raw, l.Name)
		score += scoreCString(h.raw, l.Line)
		score += scoreCString(h.raw, l.Host)
		score += scorePadding(h.raw, l.Reserved)
	case shapeLastlog:
		l := lastlog[h.tag]
		score += scoreCString(h.raw, l.Line)
		score += scoreCString(h.raw, l.Host)
		score += scorePadding(h.raw, l.Reserved)
	case shapeLastlogx:
		l := lastlogx[h.tag]
		score += scoreCString(h.raw, l.Line)
	case shapeAcct:
		l := acct
		score += scoreCString(h.raw, l.Comm)
		score += scorePadding(h.raw, l.Reserved)
		score += scoreRequiredNonZero(u8(h.raw, l.Version))
		score += scoreBitflag(u8(h.raw, l.Flag))
	case shapeAcctV3:
		l := acctV3
		score += scoreCString(h.raw, l.Comm)
		score += scorePadding(h.raw, l.Reserved)
		score += scoreRequiredNonZero(u8(h.raw, l.Version))
		score += scoreBitflag(u8(h.raw, l.Flag))
	}
	return score
}

// scoreCString scores a null-terminated text field: +1 plus +2 per valid
// ASCII byte, -3 per suspicious byte and -5 per 0xFF byte before the
// terminator; -5 per stray non-null byte after the terminator; +10/-10 for
// whether the field terminates in a null byte at all.
func scoreCString(raw []byte, r fieldRange) Score {
	field := raw[r.Off:r.end()]
	var score Score = 1

	nullAt := -1
	for i, b := range field {
		if b == 0 {
			nullAt = i
			break
		}
		switch {
		case b == 0xFF:
			score -= 5
		case b < 0x20 || b >= 0x7F:
			score -= 3
		default:
			score += 2
		}
	}

	if nullAt == -1 {
		score -= 10
		return score
	}
	score += 10

	for _, b := range field[nullAt+1:] {
		if b != 0 {
			score -= 5
		}
	}
	return score
}

// scorePadding scores a reserved field that should be entirely zero.
func scorePadding(raw []byte, r fieldRange) Score {
	for _, b := range raw[r.Off:r.end()] {
		if b != 0 {
			return -4
		}
	}
	return 10
}

// scoreRequiredNonZero scores a field documented as always non-zero (e.g.
// the accounting record version byte).
func scoreRequiredNonZero(v uint8) Score {
	if v != 0 {
		return 10
	}
	return -10
}

// scoreUtType scores ut_type against the known type set.
func scoreUtType(t int16) Score {
	if !isKnownUtType(t) {
		return 0
	}
	if t != utEmpty {
		return 15
	}
	return 5
}

// scoreBitflag scores an accounting flag byte against its documented mask.
func scoreBitflag(flag uint8) Score {
	mask := acctFlagMask()
	if flag&^mask != 0 {
		return -30
	}
	if flag == 0 {
		return 2
	}
	return 5
}

// scoreTimestamp scores the record's time field against the sane epoch
// window (year 2000 through 2038, per spec.md §4.5).
func scoreTimestamp(h *Handle) Score {
	tp, ok := ExtractTime(h.raw, h.tag)
	if !ok {
		return 0
	}
	const (
		y2000 = 946684800  // 2000-01-01T00:00:00Z
		y2038 = 2147483647 // 2038-01-19T03:14:07Z
	)
	if tp.Sec == 0 {
		return -30 - 40
	}
	if tp.Sec >= y2000 && tp.Sec <= y2038 {
		return 20
	}
	return -30
}

// Choose selects, among set's candidates, the variant with the highest
// cumulative score over the first maxRecords records of raw that decode
// successfully (a representative file prefix); ties favor the
// variant whose naming hint matches hint.
func Choose(raw []byte, set VariantSet, hint NamingHint, maxRecords int) (VariantTag, bool) {
	type result struct {
		tag   VariantTag
		score Score
		match bool
	}
	var best *result

	for tag, bonus := range set {
		size := Size(tag)
		var total Score
		records := 0
		for off := 0; off+size <= len(raw) && records < maxRecords; off += size {
			h, ok := Decode(raw[off:off+size], tag)
			if !ok {
				continue
			}
			total += ScoreRecord(h, bonus)
			records++
		}
		if records == 0 {
			continue
		}
		r := result{tag: tag, score: total, match: Hint(tag) == hint}
		if best == nil || r.score > best.score || (r.score == best.score && r.match && !best.match) {
			best = &r
		}
	}

	if best == nil {
		return 0, false
	}
	return best.tag, true
}
