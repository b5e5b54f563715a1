package lock

import "testing"

func TestDistinctTokensCompareUnequal(t *testing.T) {
	// Acquire/Release require a live Redis; here we only verify the token
	// type stays an opaque comparable string, which the fencing checks
	// depend on.
	a := Token("a")
	b := Token("b")
	if a == b {
		t.Fatal("distinct tokens compared equal")
	}
}

func TestErrBusyIsDistinctSentinel(t *testing.T) {
	if ErrBusy == nil {
		t.Fatal("ErrBusy must not be nil")
	}
	if ErrBusy.Error() == "" {
		t.Fatal("ErrBusy must have a message")
	}
}
