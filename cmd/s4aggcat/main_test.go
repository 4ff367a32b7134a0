package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/tinyrange/s4cat/internal/fixedstruct"
)

func TestFixedstructNamingHintInference(t *testing.T) {
	cases := []struct {
		path string
		want fixedstruct.NamingHint
	}{
		{"/var/log/wtmp", fixedstruct.HintUtmp},
		{"/var/log/wtmpx", fixedstruct.HintUtmpx},
		{"/var/log/lastlog", fixedstruct.HintLastlog},
		{"/var/log/lastlogx", fixedstruct.HintLastlogx},
		{"/var/account/pacct", fixedstruct.HintAcct},
		{"notes.txt", fixedstruct.HintNone},
	}
	for _, c := range cases {
		if got := fixedstructNamingHint(c.path); got != c.want {
			t.Errorf("fixedstructNamingHint(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestWriteSortedOrdersByTimestamp(t *testing.T) {
	base := time.Unix(1_700_000_000, 0).UTC()
	entries := []renderedEntry{
		{when: base.Add(2 * time.Second), line: "third"},
		{when: base, line: "first"},
		{when: base.Add(time.Second), line: "second"},
	}

	var buf bytes.Buffer
	if err := writeSorted(&buf, entries); err != nil {
		t.Fatalf("writeSorted: %v", err)
	}

	want := "first\nsecond\nthird\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestNewFileProgressBarReportsTotal(t *testing.T) {
	bar := newFileProgressBar(3)
	if bar.GetMax() != 3 {
		t.Errorf("GetMax() = %d, want 3", bar.GetMax())
	}
}

func TestEvtxTimeCreatedExtractsRFC3339(t *testing.T) {
	xml := `<Event><System><TimeCreated SystemTime="2024-01-02T03:04:05.123456Z"/></System></Event>`
	m := evtxTimeCreated.FindStringSubmatch(xml)
	if m == nil {
		t.Fatal("expected a TimeCreated match")
	}
	if _, err := time.Parse(time.RFC3339Nano, m[1]); err != nil {
		t.Errorf("time.Parse(%q): %v", m[1], err)
	}
}
