package recharge

import (
	"strings"
	"testing"
)

func TestFormatNote_GPSNoSavings(t *testing.T) {
	note := FormatNote("GPS-AUTO v2.3", NoteStats{Evaluated: 1, Expired: 1, DueToday: 0, Savings: 0, OK: 1, Tried: 1}, false, false, "GPS")
	want := "[GPS-AUTO v2.3] EVALUADOS: 1 | VENCIDOS: 1 | POR_VENCER: 0 | [001/001]"
	if note != want {
		t.Errorf("FormatNote() = %q, want %q", note, want)
	}
}

func TestFormatNote_GPSWithSavings(t *testing.T) {
	note := FormatNote("GPS-AUTO v2.3", NoteStats{Evaluated: 2, Expired: 1, DueToday: 0, Savings: 1, OK: 1, Tried: 1}, true, false, "GPS")
	want := "[GPS-AUTO v2.3] EVALUADOS: 2 | VENCIDOS: 1 | POR_VENCER: 0 | AHORRO: 1 | [001/001]"
	if note != want {
		t.Errorf("FormatNote() = %q, want %q", note, want)
	}
}

func TestFormatNote_VOZWithoutSavings(t *testing.T) {
	note := FormatNote("VOZ-AUTO v1.0", NoteStats{Evaluated: 2, Expired: 2, OK: 2, Tried: 2}, false, false, "VOZ")
	if strings.Contains(note, "AHORRO") {
		t.Errorf("FormatNote() = %q, should omit AHORRO when includeSavings is false", note)
	}
}

func TestFormatNote_RecoveryPrefix(t *testing.T) {
	note := FormatNote("GPS-AUTO v2.3", NoteStats{Evaluated: 1, OK: 1, Tried: 1}, false, true, "GPS")
	if !strings.HasPrefix(note, "< RECUPERACIÓN GPS > ") {
		t.Errorf("FormatNote() = %q, want recovery prefix", note)
	}
}

func TestFormatNote_ZeroPadsOkTried(t *testing.T) {
	note := FormatNote("GPS-AUTO v2.3", NoteStats{OK: 7, Tried: 12}, false, false, "GPS")
	if !strings.HasSuffix(note, "[007/012]") {
		t.Errorf("FormatNote() = %q, want zero-padded [007/012]", note)
	}
}
