package fixedstruct

// ut_type values, shared by the scorer (C5) and the formatter (C6). The
// numbering follows glibc's utmp.h ordering.
const (
	utEmpty        = 0
	utRunLvl       = 1
	utBootTime     = 2
	utNewTime      = 3
	utOldTime      = 4
	utInitProcess  = 5
	utLoginProcess = 6
	utUserProcess  = 7
	utDeadProcess  = 8
	utAccounting   = 9
	utSignature    = 10
	utDownTime     = 11
)

var utTypeNames = map[int16]string{
	utEmpty:        "EMPTY",
	utRunLvl:       "RUN_LVL",
	utBootTime:     "BOOT_TIME",
	utNewTime:      "NEW_TIME",
	utOldTime:      "OLD_TIME",
	utInitProcess:  "INIT_PROCESS",
	utLoginProcess: "LOGIN_PROCESS",
	utUserProcess:  "USER_PROCESS",
	utDeadProcess:  "DEAD_PROCESS",
	utAccounting:   "ACCOUNTING",
	utSignature:    "SIGNATURE",
	utDownTime:     "DOWN_TIME",
}

func isKnownUtType(t int16) bool {
	_, ok := utTypeNames[t]
	return ok
}

// acctFlagNames documents the acct record's ac_flag bitmask (C6's
// rendering rule: one name per set bit, in mask order).
var acctFlagNames = []struct {
	bit  uint8
	name string
}{
	{1 << 0, "FORK"},
	{1 << 1, "SU"},
	{1 << 2, "CORE"},
	{1 << 3, "XSIG"},
	{1 << 4, "XTRC"},
}

func acctFlagMask() uint8 {
	var mask uint8
	for _, f := range acctFlagNames {
		mask |= f.bit
	}
	return mask
}
