package fixedstruct

// shapeKind groups the 16 variants into the handful of field layouts they
// actually share. This is the Go expression of the Design Note's tagged
// union: accessors and the formatter switch on shapeKind (and ultimately
// VariantTag) instead of a virtual table.
type shapeKind int

const (
	shapeLinuxUtmp shapeKind = iota
	shapeBsdUtmpx
	shapeBsdUtmp
	shapeLastlog
	shapeLastlogx
	shapeAcct
	shapeAcctV3
)

func shapeOf(tag VariantTag) shapeKind {
	switch tag {
	case LinuxX86Utmp, LinuxArm64Utmp:
		return shapeLinuxUtmp
	case FreebsdAmd64Utmpx, NetbsdX8632Utmpx, NetbsdX8664Utmpx:
		return shapeBsdUtmpx
	case NetbsdX8632Utmp, NetbsdX8664Utmp, OpenbsdX86Utmp:
		return shapeBsdUtmp
	case NetbsdX8632Lastlog, NetbsdX8664Lastlog, OpenbsdX86Lastlog:
		return shapeLastlog
	case FreebsdAmd64Lastlogx, NetbsdX8632Lastlogx, NetbsdX8664Lastlogx:
		return shapeLastlogx
	case LinuxAcct:
		return shapeAcct
	case LinuxAcctV3:
		return shapeAcctV3
	default:
		panic("fixedstruct: unreachable variant in shapeOf")
	}
}

// fieldRange is a byte range within a record: [Off, Off+Len).
type fieldRange struct{ Off, Len int }

func (f fieldRange) end() int { return f.Off + f.Len }

// linuxUtmpLayout mirrors glibc's struct utmp exactly.
type linuxUtmpLayout struct {
	Type, Pad, Pid, Line, ID, User, Host, Exit, Session, AddrV6, Unused fieldRange
}

var linuxUtmp = linuxUtmpLayout{
	Type:    fieldRange{0, 2},
	Pad:     fieldRange{2, 2},
	Pid:     fieldRange{4, 4},
	Line:    fieldRange{8, 32},
	ID:      fieldRange{40, 4},
	User:    fieldRange{44, 32},
	Host:    fieldRange{76, 256},
	Exit:    fieldRange{332, 4},
	Session: fieldRange{336, 4},
	// Time field ([340,348)) lives in the registry, not here.
	AddrV6: fieldRange{348, 16},
	Unused: fieldRange{364, 20},
}

// bsdUtmpxLayout covers FreeBSD/NetBSD struct utmpx, which differs only in
// field widths (name/line/host sizes, 32- vs 64-bit time_t) across the
// three variants that share this shape.
type bsdUtmpxLayout struct {
	User, ID, Line, Pid, Type, Host, AddrV6, Spare fieldRange
}

var bsdUtmpx = [variantCount]bsdUtmpxLayout{
	FreebsdAmd64Utmpx: {
		User: fieldRange{0, 32}, ID: fieldRange{32, 4}, Line: fieldRange{36, 16},
		Pid: fieldRange{52, 4}, Type: fieldRange{56, 4},
		// Time field [60,76) lives in the registry.
		Host: fieldRange{76, 256}, AddrV6: fieldRange{332, 16}, Spare: fieldRange{348, 280},
	},
	NetbsdX8632Utmpx: {
		User: fieldRange{0, 17}, ID: fieldRange{17, 4}, Line: fieldRange{21, 8},
		Pid: fieldRange{29, 4}, Type: fieldRange{33, 1},
		// Time field [34,42) lives in the registry.
		Host: fieldRange{42, 256}, AddrV6: fieldRange{298, 16}, Spare: fieldRange{314, 115},
	},
	NetbsdX8664Utmpx: {
		User: fieldRange{0, 17}, ID: fieldRange{17, 4}, Line: fieldRange{21, 8},
		Pid: fieldRange{29, 4}, Type: fieldRange{33, 1},
		// Time field [34,50) lives in the registry.
		Host: fieldRange{50, 256}, AddrV6: fieldRange{306, 16}, Spare: fieldRange{322, 111},
	},
}

// bsdUtmpLayout covers the classic pre-utmpx BSD utmp: line, name, host,
// then a trailing time_t (the registry's time field sits at the record's
// tail for this shape).
type bsdUtmpLayout struct {
	Line, Name, Host, Reserved fieldRange
}

var bsdUtmp = [variantCount]bsdUtmpLayout{
	NetbsdX8632Utmp: {Line: fieldRange{0, 8}, Name: fieldRange{8, 8}, Host: fieldRange{16, 16}, Reserved: fieldRange{32, 92}},
	NetbsdX8664Utmp: {Line: fieldRange{0, 8}, Name: fieldRange{8, 8}, Host: fieldRange{16, 16}, Reserved: fieldRange{32, 108}},
	OpenbsdX86Utmp:  {Line: fieldRange{0, 8}, Name: fieldRange{8, 8}, Host: fieldRange{16, 16}, Reserved: fieldRange{32, 64}},
}

// lastlogLayout: time field first (from the registry), then line and host.
type lastlogLayout struct {
	Line, Host, Reserved fieldRange
}

var lastlog = [variantCount]lastlogLayout{
	NetbsdX8632Lastlog: {Line: fieldRange{4, 8}, Host: fieldRange{12, 16}, Reserved: fieldRange{28, 8}},
	NetbsdX8664Lastlog: {Line: fieldRange{8, 8}, Host: fieldRange{16, 16}, Reserved: fieldRange{32, 8}},
	OpenbsdX86Lastlog:  {Line: fieldRange{4, 8}, Host: fieldRange{12, 16}, Reserved: fieldRange{28, 12}},
}

// lastlogxLayout: time field first (from the registry), then an IPv4/IPv6
// address slot, then the line.
type lastlogxLayout struct {
	AddrV6, Line fieldRange
}

var lastlogx = [variantCount]lastlogxLayout{
	FreebsdAmd64Lastlogx: {AddrV6: fieldRange{16, 16}, Line: fieldRange{32, 60}},
	NetbsdX8632Lastlogx:  {AddrV6: fieldRange{8, 16}, Line: fieldRange{24, 28}},
	NetbsdX8664Lastlogx:  {AddrV6: fieldRange{16, 16}, Line: fieldRange{32, 24}},
}

// acctLayout covers Linux BSD-style process accounting records (struct
// acct). The time field (ac_btime) lives in the registry.
type acctLayout struct {
	Flag, Version, TTY, UID, GID, Reserved, Comm, Etime, Utime, Stime, Mem, IO, Swaps fieldRange
}

var acct = acctLayout{
	Flag: fieldRange{0, 1}, Version: fieldRange{1, 1}, TTY: fieldRange{2, 2},
	UID: fieldRange{4, 4}, GID: fieldRange{8, 4},
	// Time field [12,16) lives in the registry.
	Reserved: fieldRange{16, 8}, Comm: fieldRange{24, 16},
	Etime: fieldRange{40, 4}, Utime: fieldRange{44, 4}, Stime: fieldRange{48, 4},
	Mem: fieldRange{52, 4}, IO: fieldRange{56, 4}, Swaps: fieldRange{60, 4},
}

// acctV3Layout additionally carries the wider pid/ppid s4 version 3 added.
type acctV3Layout struct {
	Flag, Version, TTY, Exitcode, UID, GID, Pid, PPid, Reserved, Comm fieldRange
	Etime, Utime, Stime, Mem, IO, RW, Minflt, Majflt, Swaps, Reserved2 fieldRange
}

var acctV3 = acctV3Layout{
	Flag: fieldRange{0, 1}, Version: fieldRange{1, 1}, TTY: fieldRange{2, 2}, Exitcode: fieldRange{4, 4},
	UID: fieldRange{8, 4}, GID: fieldRange{12, 4}, Pid: fieldRange{16, 4}, PPid: fieldRange{20, 4},
	// Time field [24,28) lives in the registry.
	Reserved: fieldRange{28, 12}, Comm: fieldRange{40, 16},
	Etime: fieldRange{56, 4}, Utime: fieldRange{60, 4}, Stime: fieldRange{64, 4},
	Mem: fieldRange{68, 4}, IO: fieldRange{72, 4}, RW: fieldRange{76, 4},
	Minflt: fieldRange{80, 4}, Majflt: fieldRange{84, 4}, Swaps: fieldRange{88, 4},
	Reserved2: fieldRange{92, 36},
}

// fieldExtent returns the byte offset one past the last field this package
// knows about for tag, used only to cross-check the registry's declared
// size at init() time.
func fieldExtent(tag VariantTag) int {
	switch shapeOf(tag) {
	case shapeLinuxUtmp:
		return linuxUtmp.Unused.end()
	case shapeBsdUtmpx:
		return bsdUtmpx[tag].Spare.end()
	case shapeBsdUtmp:
		// This shape's time field trails the reserved region (classic BSD
		// utmp order: line, name, host, ..., ut_time last).
		return bsdUtmp[tag].Reserved.end() + TimeSize(tag)
	case shapeLastlog:
		return lastlog[tag].Reserved.end()
	case shapeLastlogx:
		return lastlogx[tag].Line.end()
	case shapeAcct:
		return acct.Swaps.end()
	case shapeAcctV3:
		return acctV3.Reserved2.end()
	default:
		panic("fixedstruct: unreachable variant in fieldExtent")
	}
}
