package fixedstruct

import (
	"encoding/binary"
	"fmt"
)

// cstring renders a C-string field as text, stopping at the first null
// byte and never reading beyond the field's extent.
func cstring(raw []byte, r fieldRange) string {
	field := raw[r.Off:r.end()]
	for i, b := range field {
		if b == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}

func u16(raw []byte, r fieldRange) uint16 { return binary.LittleEndian.Uint16(raw[r.Off:]) }
func u32(raw []byte, r fieldRange) uint32 { return binary.LittleEndian.Uint32(raw[r.Off:]) }
func i32(raw []byte, r fieldRange) int32  { return int32(binary.LittleEndian.Uint32(raw[r.Off:])) }
func i16(raw []byte, r fieldRange) int16  { return int16(binary.LittleEndian.Uint16(raw[r.Off:])) }
func u8(raw []byte, r fieldRange) uint8   { return raw[r.Off] }

func addrV6(raw []byte, r fieldRange) [4]uint32 {
	var out [4]uint32
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[r.Off+i*4:])
	}
	return out
}

// UtmpFields is the accessor view shared by every utmp/utmpx-shaped
// variant (LinuxUtmp, BsdUtmpx and BsdUtmp shapes); fields the underlying
// layout lacks come back zero-valued.
type UtmpFields struct {
	User, Line, Host string
	Type             int16
	Pid              int32
	Session          int32
	AddrV6           [4]uint32
}

// AsUtmp returns the record's fields under the common utmp/utmpx view, or
// an error describing the mismatch if this handle's variant isn't
// utmp-shaped — the Go analogue of the "as_<variant>" accessors that fail
// with a mismatch diagnostic in the original design.
func (h *Handle) AsUtmp() (UtmpFields, error) {
	switch shapeOf(h.tag) {
	case shapeLinuxUtmp:
		l := linuxUtmp
		return UtmpFields{
			User: cstring(h.raw, l.User), Line: cstring(h.raw, l.Line), Host: cstring(h.raw, l.Host),
			Type: i16(h.raw, l.Type), Pid: i32(h.raw, l.Pid), Session: i32(h.raw, l.Session),
			AddrV6: addrV6(h.raw, l.AddrV6),
		}, nil
	case shapeBsdUtmpx:
		l := bsdUtmpx[h.tag]
		return UtmpFields{
			User: cstring(h.raw, l.User), Line: cstring(h.raw, l.Line), Host: cstring(h.raw, l.Host),
			Type: int16(u8(h.raw, l.Type)), Pid: i32(h.raw, l.Pid),
			AddrV6: addrV6(h.raw, l.AddrV6),
		}, nil
	case shapeBsdUtmp:
		l := bsdUtmp[h.tag]
		return UtmpFields{User: cstring(h.raw, l.Name), Line: cstring(h.raw, l.Line), Host: cstring(h.raw, l.Host)}, nil
	default:
		return UtmpFields{}, fmt.Errorf("fixedstruct: variant %s is not utmp-shaped", h.tag)
	}
}

// LastlogFields is the accessor view shared by lastlog and lastlogx.
type LastlogFields struct {
	Line, Host string
	AddrV6     [4]uint32
}

// AsLastlog returns the record's fields under the common lastlog/lastlogx
// view, or a mismatch error for any other shape.
func (h *Handle) AsLastlog() (LastlogFields, error) {
	switch shapeOf(h.tag) {
	case shapeLastlog:
		l := lastlog[h.tag]
		return LastlogFields{Line: cstring(h.raw, l.Line), Host: cstring(h.raw, l.Host)}, nil
	case shapeLastlogx:
		l := lastlogx[h.tag]
		return LastlogFields{Line: cstring(h.raw, l.Line), AddrV6: addrV6(h.raw, l.AddrV6)}, nil
	default:
		return LastlogFields{}, fmt.Errorf("fixedstruct: variant %s is not lastlog-shaped", h.tag)
	}
}

// AcctFields is the accessor view shared by the Linux acct and acct-v3
// process accounting layouts.
type AcctFields struct {
	Comm           string
	Flag, Version  uint8
	UID, GID       uint32
	Pid, PPid      uint32
	HasPid         bool
}

// AsAcct returns the record's fields under the common accounting view, or
// a mismatch error for any non-acct shape.
func (h *Handle) AsAcct() (AcctFields, error) {
	switch shapeOf(h.tag) {
	case shapeAcct:
		l := acct
		return AcctFields{
			Comm: cstring(h.raw, l.Comm), Flag: u8(h.raw, l.Flag), Version: u8(h.raw, l.Version),
			UID: u32(h.raw, l.UID), GID: u32(h.raw, l.GID),
		}, nil
	case shapeAcctV3:
		l := acctV3
		return AcctFields{
			Comm: cstring(h.raw, l.Comm), Flag: u8(h.raw, l.Flag), Version: u8(h.raw, l.Version),
			UID: u32(h.raw, l.UID), GID: u32(h.raw, l.GID),
			Pid: u32(h.raw, l.Pid), PPid: u32(h.raw, l.PPid), HasPid: true,
		}, nil
	default:
		return AcctFields{}, fmt.Errorf("fixedstruct: variant %s is not acct-shaped", h.tag)
	}
}

// GoString implements fmt.GoStringer, dispatching per-tag the way the
// original's per-variant Debug impl does.
func (h *Handle) GoString() string {
	switch shapeOf(h.tag) {
	case shapeLinuxUtmp, shapeBsdUtmpx, shapeBsdUtmp:
		f, _ := h.AsUtmp()
		return fmt.Sprintf("%s{user:%q line:%q host:%q type:%d pid:%d}", h.tag, f.User, f.Line, f.Host, f.Type, f.Pid)
	case shapeLastlog, shapeLastlogx:
		f, _ := h.AsLastlog()
		return fmt.Sprintf("%s{line:%q host:%q}", h.tag, f.Line, f.Host)
	case shapeAcct, shapeAcctV3:
		f, _ := h.AsAcct()
		return fmt.Sprintf("%s{comm:%q uid:%d gid:%d version:%d}", h.tag, f.Comm, f.UID, f.GID, f.Version)
	default:
		return h.tag.String()
	}
}
