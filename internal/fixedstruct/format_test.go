package fixedstruct

import (
	"encoding/binary"
	"strings"
	"testing"
)

func TestFormatUtmpRecord(t *testing.T) {
	buf := make([]byte, Size(LinuxX86Utmp))
	copy(buf[linuxUtmp.User.Off:], "root")
	copy(buf[linuxUtmp.Line.Off:], "tty1")
	copy(buf[linuxUtmp.Host.Off:], "localhost")
	binary.LittleEndian.PutUint16(buf[linuxUtmp.Type.Off:], uint16(utUserProcess))
	binary.LittleEndian.PutUint32(buf[TimeOffset(LinuxX86Utmp):], 1700000000)

	h, ok := Decode(buf, LinuxX86Utmp)
	if !ok {
		t.Fatal("expected decode to succeed")
	}

	out := make([]byte, 256)
	res, err := Format(h, out, 0)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	line := string(out[:res.BytesWritten])

	if !strings.Contains(line, `user="root"`) {
		t.Errorf("line missing rendered user field: %q", line)
	}
	if !strings.Contains(line, "type=USER_PROCESS") {
		t.Errorf("line missing translated ut_type: %q", line)
	}
	if !strings.HasSuffix(line, "\x00") {
		t.Errorf("line missing terminating null byte: %q", line)
	}
	if res.DTStart > res.DTEnd || res.DTEnd > res.BytesWritten {
		t.Errorf("dt span invalid: start=%d end=%d written=%d", res.DTStart, res.DTEnd, res.BytesWritten)
	}
	dtSubstring := line[res.DTStart:res.DTEnd]
	if strings.Contains(dtSubstring, "time=") {
		t.Errorf("dt span should bracket only the datetime value, not its label: %q", dtSubstring)
	}
	if strings.HasSuffix(dtSubstring, " ") {
		t.Errorf("dt span should not include the trailing separator space: %q", dtSubstring)
	}
	wantPrefix := "time=" + dtSubstring + " "
	if !strings.Contains(line, wantPrefix) {
		t.Errorf("line does not contain %q immediately around the dt span: %q", wantPrefix, line)
	}
}

func TestFormatReturnsOverflowOnShortBuffer(t *testing.T) {
	buf := make([]byte, Size(LinuxX86Utmp))
	copy(buf[linuxUtmp.User.Off:], "root")

	h, ok := Decode(buf, LinuxX86Utmp)
	if !ok {
		t.Fatal("expected decode to succeed")
	}

	out := make([]byte, 4)
	_, err := Format(h, out, 0)
	var overflow *Overflow
	if err == nil {
		t.Fatal("expected an overflow error for a 4-byte buffer")
	}
	if !isOverflow(err, &overflow) {
		t.Errorf("expected *Overflow, got %T: %v", err, err)
	}
}

func isOverflow(err error, target **Overflow) bool {
	o, ok := err.(*Overflow)
	if ok {
		*target = o
	}
	return ok
}

func TestRenderAddrIPv4(t *testing.T) {
	addr := [4]uint32{0x0100007F, 0, 0, 0} // 127.0.0.1 little-endian words
	got := renderAddr(addr)
	if got != "127.0.0.1" {
		t.Errorf("renderAddr() = %q, want 127.0.0.1", got)
	}
}

func TestRenderAddrIPv6(t *testing.T) {
	addr := [4]uint32{1, 2, 3, 4}
	got := renderAddr(addr)
	if got != "1:2:3:4" {
		t.Errorf("renderAddr() = %q, want 1:2:3:4", got)
	}
}

func TestRenderAcctFlag(t *testing.T) {
	got := renderAcctFlag(1 | 4) // FORK | CORE
	if !strings.Contains(got, "FORK") || !strings.Contains(got, "CORE") {
		t.Errorf("renderAcctFlag() = %q, want FORK and CORE", got)
	}
	if !strings.HasPrefix(got, "0b") {
		t.Errorf("renderAcctFlag() = %q, want 0b-prefixed", got)
	}
}

func TestRenderUtTypeUnknownFallsBackToDecimal(t *testing.T) {
	got := renderUtType(999)
	if got != "999" {
		t.Errorf("renderUtType(999) = %q, want 999", got)
	}
}
