package fixedstruct

import "testing"

func TestAllVariantsHavePositiveSize(t *testing.T) {
	for _, tag := range AllVariants() {
		if Size(tag) <= 0 {
			t.Errorf("%s: non-positive size", tag)
		}
		if TimeOffset(tag)+TimeSize(tag) > Size(tag) {
			t.Errorf("%s: time field exceeds record size", tag)
		}
	}
}

func TestVariantTagString(t *testing.T) {
	if got := LinuxX86Utmp.String(); got != "LinuxX86Utmp" {
		t.Errorf("String() = %q, want LinuxX86Utmp", got)
	}
}

func TestAllVariantsCount(t *testing.T) {
	if got := len(AllVariants()); got != int(variantCount) {
		t.Errorf("AllVariants() returned %d entries, want %d", got, variantCount)
	}
}
