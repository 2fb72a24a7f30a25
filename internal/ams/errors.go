package ams

// Result classifies an operation outcome. Validation results are returned
// synchronously before any state mutation; fault results surface
// mid-operation and force the ERROR action.
type Result string

const (
	ResultSuccess          Result = "success"
	ResultBusy             Result = "busy"
	ResultInvalidGate      Result = "invalid_gate"
	ResultInvalidTool      Result = "invalid_tool"
	ResultGateNotAvailable Result = "gate_not_available"
	ResultGateBlocked      Result = "gate_blocked"
	ResultWrongState       Result = "wrong_state"
	ResultNotConnected     Result = "not_connected"
	ResultFilamentJam      Result = "filament_jam"
	ResultEncoderError     Result = "encoder_error"
	ResultSensorError      Result = "sensor_error"
	ResultLoadFailed       Result = "load_failed"
	ResultUnknown          Result = "unknown"
)

// Error carries a technical message for logs plus a user-facing message in
// domain terms, with an optional remedy suggestion. Operations return nil on
// success.
type Error struct {
	Code    Result
	Message string // diagnostic
	User    string // shown to the operator
	Remedy  string // optional suggestion
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

func newError(code Result, msg, user string) *Error {
	return &Error{Code: code, Message: msg, User: user}
}

func (e *Error) withRemedy(r string) *Error {
	e.Remedy = r
	return e
}

// ResultOf extracts the Result code from an operation error; nil maps to
// ResultSuccess and foreign errors to ResultUnknown.
func ResultOf(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	if ae, ok := err.(*Error); ok && ae != nil {
		return ae.Code
	}
	return ResultUnknown
}

// AsError returns the typed error when err is one, else nil.
func AsError(err error) *Error {
	if ae, ok := err.(*Error); ok {
		return ae
	}
	return nil
}

// IsBusy reports whether err means another operation is in flight.
func IsBusy(err error) bool { return ResultOf(err) == ResultBusy }

// IsInvalidGate reports an out-of-range gate index.
func IsInvalidGate(err error) bool { return ResultOf(err) == ResultInvalidGate }

// IsInvalidTool reports an out-of-range tool number.
func IsInvalidTool(err error) bool { return ResultOf(err) == ResultInvalidTool }

// IsWrongState reports an operation attempted from an incompatible state.
func IsWrongState(err error) bool { return ResultOf(err) == ResultWrongState }

// IsNotConnected reports a vendor backend without a live connection.
func IsNotConnected(err error) bool { return ResultOf(err) == ResultNotConnected }

// IsValidation reports whether the code belongs to the synchronous
// validation family (no state changed, no event emitted).
func IsValidation(err error) bool {
	switch ResultOf(err) {
	case ResultBusy, ResultInvalidGate, ResultInvalidTool,
		ResultGateNotAvailable, ResultGateBlocked,
		ResultWrongState, ResultNotConnected:
		return true
	}
	return false
}

// faultSegment maps a runtime fault to the path segment a UI should flag.
// Jam and encoder faults localize to the hub, sensor and load faults to the
// toolhead, gate faults to the prep area; anything else stays where the
// filament currently is.
func faultSegment(code Result, current Segment) Segment {
	switch code {
	case ResultFilamentJam, ResultEncoderError:
		return SegmentHub
	case ResultSensorError, ResultLoadFailed:
		return SegmentToolhead
	case ResultGateNotAvailable, ResultGateBlocked:
		return SegmentPrep
	}
	return current
}
