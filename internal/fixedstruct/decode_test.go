package fixedstruct

import "testing"

func TestDecodeRejectsShortBuffer(t *testing.T) {
	buf := make([]byte, Size(LinuxX86Utmp)-1)
	if _, ok := Decode(buf, LinuxX86Utmp); ok {
		t.Fatal("expected short buffer to be rejected")
	}
}

func TestDecodeRejectsAllZero(t *testing.T) {
	buf := make([]byte, Size(LinuxX86Utmp))
	if _, ok := Decode(buf, LinuxX86Utmp); ok {
		t.Fatal("expected all-zero buffer to be rejected")
	}
}

func TestDecodeRejectsAllFF(t *testing.T) {
	buf := make([]byte, Size(LinuxX86Utmp))
	for i := range buf {
		buf[i] = 0xFF
	}
	if _, ok := Decode(buf, LinuxX86Utmp); ok {
		t.Fatal("expected all-0xFF buffer to be rejected")
	}
}

func TestDecodeAcceptsWellFormedRecord(t *testing.T) {
	buf := make([]byte, Size(LinuxX86Utmp))
	copy(buf[linuxUtmp.User.Off:], "root")
	copy(buf[linuxUtmp.Line.Off:], "tty1")
	h, ok := Decode(buf, LinuxX86Utmp)
	if !ok {
		t.Fatal("expected well-formed record to decode")
	}
	if h.Tag() != LinuxX86Utmp {
		t.Errorf("Tag() = %v, want LinuxX86Utmp", h.Tag())
	}
	if h.Size() != Size(LinuxX86Utmp) {
		t.Errorf("Size() = %d, want %d", h.Size(), Size(LinuxX86Utmp))
	}

	f, err := h.AsUtmp()
	if err != nil {
		t.Fatalf("AsUtmp: %v", err)
	}
	if f.User != "root" || f.Line != "tty1" {
		t.Errorf("AsUtmp() = %+v, want user=root line=tty1", f)
	}
}

func TestDecodeCopiesBuffer(t *testing.T) {
	buf := make([]byte, Size(LinuxX86Utmp))
	copy(buf[linuxUtmp.User.Off:], "root")
	h, ok := Decode(buf, LinuxX86Utmp)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	buf[linuxUtmp.User.Off] = 'X'
	f, _ := h.AsUtmp()
	if f.User != "root" {
		t.Errorf("mutating the source buffer changed the handle: got %q", f.User)
	}
}

func TestAsUtmpMismatch(t *testing.T) {
	buf := make([]byte, Size(LinuxAcct))
	copy(buf[acct.Comm.Off:], "init")
	h, ok := Decode(buf, LinuxAcct)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if _, err := h.AsUtmp(); err == nil {
		t.Fatal("expected AsUtmp on an acct handle to error")
	}
}
