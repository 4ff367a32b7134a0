package fixedstruct

import (
	"fmt"
)

// FormatResult is the successful outcome of Format: bytesWritten bytes were
// placed in the caller's buffer, and [DTStart, DTEnd) delimits the
// substring holding the rendered datetime so callers can re-skin the
// timezone without reparsing the whole line.
type FormatResult struct {
	BytesWritten int
	DTStart      int
	DTEnd        int
}

// Overflow is returned by Format when out reran out of room; BytesWritten
// is how much of the partial rendering made it in before that happened.
// The caller must not interpret the partial buffer as a complete line.
type Overflow struct {
	BytesWritten int
}

func (o *Overflow) Error() string {
	return fmt.Sprintf("fixedstruct: format overflow after %d bytes", o.BytesWritten)
}

// writer tracks an append-only cursor into a fixed-size buffer, returning
// an *Overflow the instant a write would run past its end.
type writer struct {
	buf []byte
	n   int
}

func (w *writer) writeString(s string) error {
	if w.n+len(s) > len(w.buf) {
		copy(w.buf[w.n:], s[:len(w.buf)-w.n])
		w.n = len(w.buf)
		return &Overflow{BytesWritten: w.n}
	}
	copy(w.buf[w.n:], s)
	w.n += len(s)
	return nil
}

func (w *writer) writef(format string, args ...any) error {
	return w.writeString(fmt.Sprintf(format, args...))
}

// Format renders a single human-readable line for h into out, starting at
// offset 0: labeled key/value pairs specific to the variant's shape, a
// trailing newline, and a terminating null byte. tzOffsetSeconds controls
// how the record's timestamp is rendered.
//
// On success it returns the byte count written and the [start,end) span
// of the rendered datetime substring, satisfying dtStart <= dtEnd <=
// bytesWritten. If out is too small, Format returns an *Overflow
// (bytesWritten is how far it got) and the caller must discard the
// partial line.
func Format(h *Handle, out []byte, tzOffsetSeconds int) (FormatResult, error) {
	w := &writer{buf: out}

	if err := w.writef("%s ", h.tag.String()); err != nil {
		return FormatResult{}, err
	}

	if err := w.writeString("time="); err != nil {
		return FormatResult{}, err
	}
	dtStart := w.n
	if err := formatDateTimeValue(w, h, tzOffsetSeconds); err != nil {
		return FormatResult{}, err
	}
	dtEnd := w.n
	if err := w.writeString(" "); err != nil {
		return FormatResult{}, err
	}

	var fieldsErr error
	switch shapeOf(h.tag) {
	case shapeLinuxUtmp, shapeBsdUtmpx, shapeBsdUtmp:
		fieldsErr = formatUtmp(w, h)
	case shapeLastlog, shapeLastlogx:
		fieldsErr = formatLastlog(w, h)
	case shapeAcct, shapeAcctV3:
		fieldsErr = formatAcct(w, h)
	}
	if fieldsErr != nil {
		return FormatResult{}, fieldsErr
	}

	if err := w.writeString("\x00"); err != nil {
		return FormatResult{}, err
	}

	return FormatResult{BytesWritten: w.n, DTStart: dtStart, DTEnd: dtEnd}, nil
}

// formatDateTimeValue writes only the datetime representation itself, with
// no "time=" label and no trailing space, so Format can bracket [dtStart,
// dtEnd) around exactly this span.
func formatDateTimeValue(w *writer, h *Handle, tzOffsetSeconds int) error {
	tp, ok := ExtractTime(h.raw, h.tag)
	if !ok {
		return w.writeString("?")
	}
	dt, err := ToDateTime(tp, tzOffsetSeconds)
	if err != nil {
		return w.writef("%d.%06d", tp.Sec, tp.Usec)
	}
	return w.writeString(dt.Format("2006-01-02T15:04:05.000000-07:00"))
}

func formatUtmp(w *writer, h *Handle) error {
	f, err := h.AsUtmp()
	if err != nil {
		return err
	}
	if err := w.writef("user=%q line=%q host=%q ", f.User, f.Line, f.Host); err != nil {
		return err
	}
	if err := w.writef("type=%s pid=%d ", renderUtType(f.Type), f.Pid); err != nil {
		return err
	}
	return w.writef("addr=%s\n", renderAddr(f.AddrV6))
}

func formatLastlog(w *writer, h *Handle) error {
	f, err := h.AsLastlog()
	if err != nil {
		return err
	}
	if err := w.writef("line=%q host=%q ", f.Line, f.Host); err != nil {
		return err
	}
	return w.writef("addr=%s\n", renderAddr(f.AddrV6))
}

func formatAcct(w *writer, h *Handle) error {
	f, err := h.AsAcct()
	if err != nil {
		return err
	}
	if err := w.writef("comm=%q uid=%d gid=%d ", f.Comm, f.UID, f.GID); err != nil {
		return err
	}
	if f.HasPid {
		if err := w.writef("pid=%d ppid=%d ", f.Pid, f.PPid); err != nil {
			return err
		}
	}
	return w.writef("flag=%s version=%d\n", renderAcctFlag(f.Flag), f.Version)
}

// renderUtType translates ut_type via the lookup table; unknown values
// render as decimal.
func renderUtType(t int16) string {
	if name, ok := utTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("%d", t)
}

// renderAddr renders a utmp/utmpx/lastlogx address field: IPv4 dotted
// quad if the last three IPv6 words are zero, otherwise the four 32-bit
// words colon-joined.
func renderAddr(addr [4]uint32) string {
	if addr[1] == 0 && addr[2] == 0 && addr[3] == 0 {
		v4 := addr[0]
		return fmt.Sprintf("%d.%d.%d.%d", byte(v4), byte(v4>>8), byte(v4>>16), byte(v4>>24))
	}
	return fmt.Sprintf("%x:%x:%x:%x", addr[0], addr[1], addr[2], addr[3])
}

// renderAcctFlag renders an accounting flag byte as "0bNNNN
// (FLAG|FLAG|...)", one name per set bit in the documented mask.
func renderAcctFlag(flag uint8) string {
	var names []byte
	for _, f := range acctFlagNames {
		if flag&f.bit == 0 {
			continue
		}
		if len(names) > 0 {
			names = append(names, '|')
		}
		names = append(names, f.name...)
	}
	return fmt.Sprintf("0b%04b (%s)", flag, names)
}
