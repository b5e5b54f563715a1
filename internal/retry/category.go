package retry

import "strings"

// Category classifies a failed side-effecting call (spec §4.4).
type Category string

const (
	CategoryRetriable Category = "retriable"
	CategoryFatal     Category = "fatal"
	CategoryBusiness  Category = "business"
)

// retriablePatterns, fatalPatterns, and businessPatterns are matched against
// an error's message, lowercased, in that order — retriable wins over fatal
// wins over business when a message happens to match more than one table,
// since retriable failures are the common case and the cost of retrying is
// low.
var retriablePatterns = []string{
	"timeout",
	"timed out",
	"network",
	"connection reset",
	"insufficient balance",
	"saldo insuficiente",
	"rate limit",
	"too many requests",
	"temporarily unavailable",
}

var fatalPatterns = []string{
	"connection refused",
	"no such host",
	"auth failed",
	"authentication failed",
	"invalid credentials",
	"missing config",
	"unauthorized",
}

var businessPatterns = []string{
	"invalid sim",
	"sim blocked",
	"sim bloqueado",
	"duplicate",
	"duplicada",
	"unsupported carrier",
	"unsupported product",
}

// Classify categorizes err by message content (spec §4.4). Uncategorized
// errors default to BUSINESS — the safest default for an unknown failure
// mode talking to an external, money-moving provider: it gets one retry and
// then quarantines rather than either retrying up to five times with backoff
// (RETRIABLE's policy) or bubbling up and halting the service (FATAL's policy).
func Classify(err error) Category {
	if err == nil {
		return CategoryBusiness
	}
	msg := strings.ToLower(err.Error())

	for _, p := range retriablePatterns {
		if strings.Contains(msg, p) {
			return CategoryRetriable
		}
	}
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return CategoryFatal
		}
	}
	for _, p := range businessPatterns {
		if strings.Contains(msg, p) {
			return CategoryBusiness
		}
	}
	return CategoryBusiness
}
