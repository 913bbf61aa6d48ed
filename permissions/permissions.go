// Package permissions answers one question per platform: may we open the
// microphone, and if not, what should the user do about it.
package permissions

import "errors"

var ErrPermissionDenied = errors.New("microphone permission denied")

type Status int

const (
	NotDetermined Status = iota
	Authorized
	Denied
	Restricted
)

func (s Status) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	case Restricted:
		return "restricted"
	default:
		return "not determined"
	}
}

// Check returns the current microphone permission status without
// prompting the user.
func Check() Status {
	return checkMicrophone()
}

// Request triggers whatever permission flow the platform has. On
// platforms without a prompt it reports whether access looks possible.
func Request() (bool, error) {
	return requestMicrophone()
}

// Remediation returns actionable steps for the user when access is not
// authorized. Empty when nothing useful can be suggested.
func Remediation() []string {
	return remediationSteps()
}
