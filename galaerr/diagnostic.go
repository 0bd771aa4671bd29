package galaerr

import "fmt"

// Severity distinguishes advisories from errors in a diagnostic list.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Advisory codes. Advisories never block compilation.
const (
	CodeNotExhaustive       = "W-not-exhaustive"
	CodeSubsumedArm         = "W-subsumed-arm"
	CodeObsoleteProtocol    = "W-obsolete-protocol"
	CodeConstantUnderscore  = "W-constant-underscore"
	CodeTypeUnderscore      = "W-type-underscore"
	CodeUnreachableNullTest = "W-null-on-non-absentable"
)

// Diagnostic is a single reported condition. Arm is the zero-based index of
// the arm it belongs to, or -1 for the construct as a whole.
type Diagnostic struct {
	Severity Severity
	Code     string
	Msg      string
	Arm      int
}

func (d Diagnostic) String() string {
	if d.Arm >= 0 {
		return fmt.Sprintf("%s %s: arm %d: %s", d.Severity, d.Code, d.Arm, d.Msg)
	}
	return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Msg)
}

// NewWarning creates an advisory diagnostic.
func NewWarning(code string, arm int, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Msg:      fmt.Sprintf(format, args...),
		Arm:      arm,
	}
}
