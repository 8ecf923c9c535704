package model

// AuthOutcome is the closed set of authentication results. Outcomes are
// values, not errors: a refused login is a normal result of the operation.
type AuthOutcome int

const (
	AuthInvalidCredentials AuthOutcome = iota
	AuthLoginDisabled
	AuthGraceExpired
	AuthMustChangePassword
	AuthOK
)

func (o AuthOutcome) String() string {
	switch o {
	case AuthInvalidCredentials:
		return "invalid credentials"
	case AuthLoginDisabled:
		return "login disabled"
	case AuthGraceExpired:
		return "password change grace period expired"
	case AuthMustChangePassword:
		return "authenticated, password change required"
	case AuthOK:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Allowed reports whether the outcome grants a session. A user inside the
// password-change grace period is still allowed in, but must change the
// password before doing anything else.
func (o AuthOutcome) Allowed() bool {
	return o == AuthOK || o == AuthMustChangePassword
}
