package recharge

import "fmt"

// NoteStats carries the per-cycle counters spec §4.9.4's KPI note reports.
type NoteStats struct {
	Evaluated int
	Expired   int
	DueToday  int
	Savings   int // Commit omits the AHORRO field from the note whenever this is zero
	OK        int
	Tried     int
}

// FormatNote renders the compact, machine-scannable KPI line of spec
// §4.9.4: "[<tag>] EVALUADOS: <n> | VENCIDOS: <n> | POR_VENCER: <n> [ |
// AHORRO: <n> ] | [<ok>/<tried>]". isRecovery prefixes the whole string
// with "< RECUPERACIÓN <SERVICE> > " (spec §4.6 step 2).
func FormatNote(tag string, s NoteStats, includeSavings bool, isRecovery bool, service string) string {
	note := fmt.Sprintf("[%s] EVALUADOS: %d | VENCIDOS: %d | POR_VENCER: %d",
		tag, s.Evaluated, s.Expired, s.DueToday)
	if includeSavings {
		note += fmt.Sprintf(" | AHORRO: %d", s.Savings)
	}
	note += fmt.Sprintf(" | [%03d/%03d]", s.OK, s.Tried)

	if isRecovery {
		note = fmt.Sprintf("< RECUPERACIÓN %s > %s", service, note)
	}
	return note
}
