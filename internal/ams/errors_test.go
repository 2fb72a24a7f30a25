package ams

import (
	"errors"
	"testing"
)

func TestResultOf(t *testing.T) {
	if got := ResultOf(nil); got != ResultSuccess {
		t.Fatalf("nil: %s", got)
	}
	err := newError(ResultBusy, "x", "y")
	if got := ResultOf(err); got != ResultBusy {
		t.Fatalf("typed: %s", got)
	}
	if got := ResultOf(errors.New("plain")); got != ResultUnknown {
		t.Fatalf("foreign: %s", got)
	}
}

func TestErrorString(t *testing.T) {
	err := newError(ResultInvalidGate, "gate 9 out of range", "That gate does not exist")
	if got := err.Error(); got != "invalid_gate: gate 9 out of range" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestAsError(t *testing.T) {
	typed := newError(ResultWrongState, "x", "y").withRemedy("z")
	if ae := AsError(typed); ae == nil || ae.Remedy != "z" {
		t.Fatalf("AsError lost the typed value: %+v", ae)
	}
	if ae := AsError(errors.New("plain")); ae != nil {
		t.Fatalf("AsError invented a value for a foreign error")
	}
	if ae := AsError(nil); ae != nil {
		t.Fatalf("AsError(nil) = %+v", ae)
	}
}

func TestIsValidation(t *testing.T) {
	validation := []Result{
		ResultBusy, ResultInvalidGate, ResultInvalidTool,
		ResultGateNotAvailable, ResultGateBlocked,
		ResultWrongState, ResultNotConnected,
	}
	for _, code := range validation {
		if !IsValidation(newError(code, "x", "y")) {
			t.Fatalf("%s should be a validation result", code)
		}
	}
	faults := []Result{ResultFilamentJam, ResultEncoderError, ResultSensorError, ResultLoadFailed}
	for _, code := range faults {
		if IsValidation(newError(code, "x", "y")) {
			t.Fatalf("%s should not be a validation result", code)
		}
	}
	if IsValidation(nil) {
		t.Fatalf("nil is not a validation result")
	}
}

func TestErrOrNilAvoidsTypedNil(t *testing.T) {
	var typed *Error
	if err := errOrNil(typed); err != nil {
		t.Fatalf("typed nil leaked through the error interface")
	}
	if err := errOrNil(newError(ResultBusy, "x", "y")); err == nil {
		t.Fatalf("real error dropped")
	}
}

func TestFaultSegment(t *testing.T) {
	cases := []struct {
		code    Result
		current Segment
		want    Segment
	}{
		{ResultFilamentJam, SegmentLane, SegmentHub},
		{ResultEncoderError, SegmentSpool, SegmentHub},
		{ResultSensorError, SegmentHub, SegmentToolhead},
		{ResultLoadFailed, SegmentPrep, SegmentToolhead},
		{ResultGateNotAvailable, SegmentNozzle, SegmentPrep},
		{ResultGateBlocked, SegmentNozzle, SegmentPrep},
		{ResultUnknown, SegmentOutput, SegmentOutput},
	}
	for _, c := range cases {
		if got := faultSegment(c.code, c.current); got != c.want {
			t.Fatalf("faultSegment(%s, %s) = %s, want %s", c.code, c.current, got, c.want)
		}
	}
}
