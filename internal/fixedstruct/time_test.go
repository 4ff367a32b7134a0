package fixedstruct

import (
	"encoding/binary"
	"testing"
)

func TestExtractTimeSecondsMicros32(t *testing.T) {
	buf := make([]byte, Size(LinuxX86Utmp))
	off := TimeOffset(LinuxX86Utmp)
	binary.LittleEndian.PutUint32(buf[off:], 1700000000)
	binary.LittleEndian.PutUint32(buf[off+4:], 250000)

	tp, ok := ExtractTime(buf, LinuxX86Utmp)
	if !ok {
		t.Fatal("expected ExtractTime to succeed")
	}
	if tp.Sec != 1700000000 || tp.Usec != 250000 {
		t.Errorf("got %+v", tp)
	}
}

func TestExtractTimeClampsOverflowUsec(t *testing.T) {
	buf := make([]byte, Size(LinuxX86Utmp))
	off := TimeOffset(LinuxX86Utmp)
	binary.LittleEndian.PutUint32(buf[off:], 1700000000)
	binary.LittleEndian.PutUint32(buf[off+4:], 9_999_999)

	tp, ok := ExtractTime(buf, LinuxX86Utmp)
	if !ok {
		t.Fatal("expected ExtractTime to succeed")
	}
	if tp.Usec != 0 {
		t.Errorf("expected out-of-range usec to clamp to 0, got %d", tp.Usec)
	}
}

func TestExtractTimeShortBuffer(t *testing.T) {
	buf := make([]byte, TimeOffset(LinuxX86Utmp))
	if _, ok := ExtractTime(buf, LinuxX86Utmp); ok {
		t.Fatal("expected short buffer to fail")
	}
}

func TestTimePairOrdering(t *testing.T) {
	a := TimePair{Sec: 100, Usec: 5}
	b := TimePair{Sec: 100, Usec: 6}
	c := TimePair{Sec: 101, Usec: 0}
	if !a.Less(b) {
		t.Error("a should sort before b")
	}
	if !b.Less(c) {
		t.Error("b should sort before c")
	}
	if c.Less(a) {
		t.Error("c should not sort before a")
	}
}

func TestToDateTimeRoundTrip(t *testing.T) {
	tp := TimePair{Sec: 1700000000, Usec: 123456}
	dt, err := ToDateTime(tp, 0)
	if err != nil {
		t.Fatalf("ToDateTime: %v", err)
	}
	back := FromDateTime(dt)
	if back != tp {
		t.Errorf("round trip mismatch: got %+v, want %+v", back, tp)
	}
}
