package fixedstruct

import (
	"encoding/binary"
	"testing"
)

func buildLinuxUtmpRecord(user, line string, sec, usec int32) []byte {
	buf := make([]byte, Size(LinuxX86Utmp))
	copy(buf[linuxUtmp.User.Off:], user)
	copy(buf[linuxUtmp.Line.Off:], line)
	binary.LittleEndian.PutUint32(buf[TimeOffset(LinuxX86Utmp):], uint32(sec))
	binary.LittleEndian.PutUint32(buf[TimeOffset(LinuxX86Utmp)+4:], uint32(usec))
	return buf
}

func TestScanFileDecodesMultipleRecords(t *testing.T) {
	var data []byte
	data = append(data, buildLinuxUtmpRecord("root", "tty1", 1_700_000_000, 0)...)
	data = append(data, buildLinuxUtmpRecord("alice", "tty2", 1_700_000_100, 500_000)...)

	entries, err := ScanFile(data, HintUtmp, 0)
	if err != nil {
		t.Fatalf("ScanFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// LinuxX86Utmp and LinuxArm64Utmp share byte-identical layouts, so
	// Choose may land on either when both tie on score; only the shape
	// is guaranteed.
	if shapeOf(entries[0].Tag) != shapeLinuxUtmp {
		t.Errorf("entries[0].Tag = %v, want a linux-utmp-shaped variant", entries[0].Tag)
	}
	if entries[0].Offset != 0 {
		t.Errorf("entries[0].Offset = %d, want 0", entries[0].Offset)
	}
	if entries[1].Offset != int64(Size(LinuxX86Utmp)) {
		t.Errorf("entries[1].Offset = %d, want %d", entries[1].Offset, Size(LinuxX86Utmp))
	}
	if !entries[0].Time.Less(entries[1].Time) {
		t.Error("expected entries in ascending time order as they appear in the file")
	}
}

func TestScanFileSkipsAllZeroSlots(t *testing.T) {
	var data []byte
	data = append(data, buildLinuxUtmpRecord("root", "tty1", 1_700_000_000, 0)...)
	data = append(data, make([]byte, Size(LinuxX86Utmp))...)
	data = append(data, buildLinuxUtmpRecord("alice", "tty2", 1_700_000_100, 0)...)

	entries, err := ScanFile(data, HintUtmp, 0)
	if err != nil {
		t.Fatalf("ScanFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (the all-zero slot should be skipped)", len(entries))
	}
}

func TestScanFileRejectsFileWithNoDivisorVariant(t *testing.T) {
	if _, err := ScanFile(make([]byte, 7), HintNone, 0); err != ErrNoCandidate {
		t.Errorf("err = %v, want ErrNoCandidate", err)
	}
}
