package tools

// Status values for tool results.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes returned in Result.Error.
const (
	// ErrCodeValidation marks malformed or out-of-range input.
	ErrCodeValidation = "validation"
	// ErrCodeNotFound marks lookups that matched no record.
	ErrCodeNotFound = "not_found"
	// ErrCodeStock marks reservations the current stock cannot cover.
	ErrCodeStock = "insufficient_stock"
	// ErrCodePrescription marks prescription-gated operations the user is
	// not eligible for.
	ErrCodePrescription = "prescription_required"
)

// Result is the uniform envelope every tool returns. Business failures
// (unknown medication, empty stock) are carried in Error with StatusError;
// a Go error from a handler means infrastructure failure, not a bad answer.
//
// The model reads the whole envelope, so Error.Message is phrased for model
// consumption: specific enough to correct the call or relay the problem.
type Result struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
	Error  *Error         `json:"error,omitempty"`
}

// Error is a structured business error inside a Result.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// ok wraps data in a success envelope.
func ok(data map[string]any) Result {
	return Result{Status: StatusSuccess, Data: data}
}

// fail wraps a business error in an error envelope.
func fail(code, message string, details map[string]any) Result {
	return Result{
		Status: StatusError,
		Error:  &Error{Code: code, Message: message, Details: details},
	}
}
