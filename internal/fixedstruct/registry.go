// Package fixedstruct decodes the fixed-size binary accounting record
// layouts used by Unix utmp, utmpx, lastlog, lastlogx and acct files across
// the OS/architecture combinations s4cat supports. A variant is identified
// by size and naming hint, not by a magic number: these formats carry none.
package fixedstruct

import "fmt"

// VariantTag identifies one (OS, architecture, record-kind) binary layout.
type VariantTag int

const (
	LinuxX86Utmp VariantTag = iota
	LinuxArm64Utmp
	FreebsdAmd64Utmpx
	FreebsdAmd64Lastlogx
	NetbsdX8632Utmp
	NetbsdX8632Utmpx
	NetbsdX8632Lastlog
	NetbsdX8632Lastlogx
	NetbsdX8664Utmp
	NetbsdX8664Utmpx
	NetbsdX8664Lastlog
	NetbsdX8664Lastlogx
	OpenbsdX86Utmp
	OpenbsdX86Lastlog
	LinuxAcct
	LinuxAcctV3

	variantCount
)

func (v VariantTag) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}
	return fmt.Sprintf("VariantTag(%d)", int(v))
}

var variantNames = map[VariantTag]string{
	LinuxX86Utmp:         "LinuxX86Utmp",
	LinuxArm64Utmp:       "LinuxArm64Utmp",
	FreebsdAmd64Utmpx:    "FreebsdAmd64Utmpx",
	FreebsdAmd64Lastlogx: "FreebsdAmd64Lastlogx",
	NetbsdX8632Utmp:      "NetbsdX8632Utmp",
	NetbsdX8632Utmpx:     "NetbsdX8632Utmpx",
	NetbsdX8632Lastlog:   "NetbsdX8632Lastlog",
	NetbsdX8632Lastlogx:  "NetbsdX8632Lastlogx",
	NetbsdX8664Utmp:      "NetbsdX8664Utmp",
	NetbsdX8664Utmpx:     "NetbsdX8664Utmpx",
	NetbsdX8664Lastlog:   "NetbsdX8664Lastlog",
	NetbsdX8664Lastlogx:  "NetbsdX8664Lastlogx",
	OpenbsdX86Utmp:       "OpenbsdX86Utmp",
	OpenbsdX86Lastlog:    "OpenbsdX86Lastlog",
	LinuxAcct:            "LinuxAcct",
	LinuxAcctV3:          "LinuxAcctV3",
}

// TimeKind describes how a variant's time field is laid out.
type TimeKind int

const (
	// SecondsOnly32 reads a 4-byte signed integer as whole seconds.
	SecondsOnly32 TimeKind = iota
	// SecondsOnly64 reads an 8-byte signed integer as whole seconds.
	SecondsOnly64
	// SecondsOnlyU32 reads a 4-byte unsigned integer as whole seconds (acct formats).
	SecondsOnlyU32
	// SecondsMicros32 reads two 4-byte signed integers: seconds then microseconds.
	SecondsMicros32
	// SecondsMicros64 reads two 8-byte signed integers: seconds then microseconds.
	SecondsMicros64
)

// layoutInfo is the Layout Registry's per-variant constant data (C1). It is
// pure data: nothing here ever reads a buffer.
type layoutInfo struct {
	size       int
	timeOffset int
	timeSize   int
	timeKind   TimeKind
	namingHint NamingHint
}

// NamingHint is the record-kind category inferred from a file's name or
// position within an archive, used by the Variant Identifier (C5) to bias
// candidate scoring toward the variants that actually apply.
type NamingHint int

const (
	HintNone NamingHint = iota
	HintAcct
	HintAcctV3
	HintLastlog
	HintLastlogx
	HintUtmp
	HintUtmpx
)

func (h NamingHint) String() string {
	switch h {
	case HintAcct:
		return "acct"
	case HintAcctV3:
		return "acctv3"
	case HintLastlog:
		return "lastlog"
	case HintLastlogx:
		return "lastlogx"
	case HintUtmp:
		return "utmp"
	case HintUtmpx:
		return "utmpx"
	default:
		return "none"
	}
}

// Offsets below are not arbitrary: the Linux utmp layout matches the real
// glibc struct utmp (utmp.h) byte-for-byte. The BSD family structs are not
// replicated from kernel headers here; their offsets are derived, in
// layouts.go, from a consistent field ordering documented per-kind, since
// this package decodes by explicit offset rather than by memory-overlaying
// a Go struct onto the file (see Design Notes on unaligned reads).
var registry = [variantCount]layoutInfo{
	LinuxX86Utmp:         {size: 384, timeOffset: 340, timeSize: 8, timeKind: SecondsMicros32, namingHint: HintUtmp},
	LinuxArm64Utmp:       {size: 384, timeOffset: 340, timeSize: 8, timeKind: SecondsMicros32, namingHint: HintUtmp},
	FreebsdAmd64Utmpx:    {size: 628, timeOffset: 60, timeSize: 16, timeKind: SecondsMicros64, namingHint: HintUtmpx},
	FreebsdAmd64Lastlogx: {size: 92, timeOffset: 0, timeSize: 16, timeKind: SecondsMicros64, namingHint: HintLastlogx},
	NetbsdX8632Utmp:      {size: 128, timeOffset: 124, timeSize: 4, timeKind: SecondsOnly32, namingHint: HintUtmp},
	NetbsdX8632Utmpx:     {size: 429, timeOffset: 34, timeSize: 8, timeKind: SecondsMicros32, namingHint: HintUtmpx},
	NetbsdX8632Lastlog:   {size: 36, timeOffset: 0, timeSize: 4, timeKind: SecondsOnly32, namingHint: HintLastlog},
	NetbsdX8632Lastlogx:  {size: 52, timeOffset: 0, timeSize: 8, timeKind: SecondsMicros32, namingHint: HintLastlogx},
	NetbsdX8664Utmp:      {size: 148, timeOffset: 140, timeSize: 8, timeKind: SecondsOnly64, namingHint: HintUtmp},
	NetbsdX8664Utmpx:     {size: 433, timeOffset: 34, timeSize: 16, timeKind: SecondsMicros64, namingHint: HintUtmpx},
	NetbsdX8664Lastlog:   {size: 40, timeOffset: 0, timeSize: 8, timeKind: SecondsOnly64, namingHint: HintLastlog},
	NetbsdX8664Lastlogx:  {size: 56, timeOffset: 0, timeSize: 16, timeKind: SecondsMicros64, namingHint: HintLastlogx},
	OpenbsdX86Utmp:       {size: 100, timeOffset: 96, timeSize: 4, timeKind: SecondsOnly32, namingHint: HintUtmp},
	OpenbsdX86Lastlog:    {size: 40, timeOffset: 0, timeSize: 4, timeKind: SecondsOnly32, namingHint: HintLastlog},
	LinuxAcct:            {size: 64, timeOffset: 12, timeSize: 4, timeKind: SecondsOnlyU32, namingHint: HintAcct},
	LinuxAcctV3:          {size: 128, timeOffset: 24, timeSize: 4, timeKind: SecondsOnlyU32, namingHint: HintAcctV3},
}

// init verifies the registry's static invariants the way the teacher
// verifies its boot_params offset table: a mismatch here is a build-stop
// error, never something surfaced at decode time.
func init() {
	for tag := VariantTag(0); tag < variantCount; tag++ {
		info := registry[tag]
		if info.size <= 0 {
			panic(fmt.Sprintf("fixedstruct: variant %s has non-positive size", tag))
		}
		if info.timeOffset+info.timeSize > info.size {
			panic(fmt.Sprintf("fixedstruct: variant %s time field [%d:%d] exceeds record size %d",
				tag, info.timeOffset, info.timeOffset+info.timeSize, info.size))
		}
		if got := fieldExtent(tag); got != info.size {
			panic(fmt.Sprintf("fixedstruct: variant %s registry size %d does not match field layout extent %d", tag, info.size, got))
		}
	}
}

// Size returns the exact on-disk record size of a variant, in bytes.
func Size(tag VariantTag) int { return registry[tag].size }

// TimeOffset returns the byte offset of the variant's time field.
func TimeOffset(tag VariantTag) int { return registry[tag].timeOffset }

// TimeSize returns the byte width of the variant's time field.
func TimeSize(tag VariantTag) int { return registry[tag].timeSize }

// Kind returns how the variant's time field should be interpreted.
func Kind(tag VariantTag) TimeKind { return registry[tag].timeKind }

// Hint returns the naming-hint category a file must match in its name for
// this variant to receive the Variant Identifier's naming bonus.
func Hint(tag VariantTag) NamingHint { return registry[tag].namingHint }

// AllVariants returns every registered variant tag, in declaration order.
func AllVariants() []VariantTag {
	out := make([]VariantTag, variantCount)
	for i := range out {
		out[i] = VariantTag(i)
	}
	return out
}
