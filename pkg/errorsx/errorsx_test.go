package errorsx

import "testing"

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonDeviceOpen)
	if Reason(err) != ReasonDeviceOpen {
		t.Fatalf("expected reason %s, got %s", ReasonDeviceOpen, Reason(err))
	}
	if !HasReason(err, ReasonDeviceOpen) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonTransportConnect)
	second := Wrap(first, ReasonServerError)
	if Reason(second) != ReasonTransportConnect {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestReasonOfPlainError(t *testing.T) {
	if Reason(assertErr{}) != ReasonUnknown {
		t.Fatalf("expected unknown reason for plain error")
	}
	if Reason(nil) != ReasonUnknown {
		t.Fatalf("expected unknown reason for nil")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
