// Package guard decides whether the current session is admitted to a
// role-gated screen. Decide is a pure function; the caller performs the
// actual navigation.
package guard

import (
	"github.com/jobdeck/jobdeck/internal/models"
	"github.com/jobdeck/jobdeck/internal/session"
)

// Action is the admission outcome variant.
type Action string

const (
	// Allow admits the session to the screen.
	Allow Action = "allow"

	// Pending means the session is still restoring; the caller renders a
	// neutral loading state and must not redirect.
	Pending Action = "pending"

	// RedirectToLogin sends an unauthenticated session to the login page
	// matching the screen's required role.
	RedirectToLogin Action = "redirect-to-login"

	// RedirectToRoleHome sends an authenticated session with the wrong
	// role to its own home.
	RedirectToRoleHome Action = "redirect-to-role-home"
)

// Route targets
const (
	CandidateLoginPath = "/login"
	EmployerLoginPath  = "/employer/login"
	AdminLoginPath     = "/admin/login"

	CandidateHomePath = "/candidate/dashboard"
	EmployerHomePath  = "/employer/dashboard"
	UnauthorizedPath  = "/unauthorized"
)

// Decision is the result of an admission check. Target is set for the
// redirect variants and empty otherwise.
type Decision struct {
	Action Action
	Target string
}

// Decide computes admission for a screen requiring the given role. An empty
// required role means any authenticated session is admitted.
func Decide(s session.Snapshot, required models.Role) Decision {
	if s.Status == session.StatusRestoring || s.Status == session.StatusUninitialized {
		return Decision{Action: Pending}
	}

	if s.Status != session.StatusAuthenticated || s.Identity == nil {
		return Decision{Action: RedirectToLogin, Target: LoginPathFor(required)}
	}

	if required != "" && s.Identity.Role != required {
		return Decision{Action: RedirectToRoleHome, Target: HomePathFor(s.Identity.Role)}
	}

	return Decision{Action: Allow}
}

// LoginPathFor maps a required role to its login page. Anything outside the
// employer and admin portals lands on the candidate login.
func LoginPathFor(required models.Role) string {
	switch required {
	case models.RoleEmployer:
		return EmployerLoginPath
	case models.RoleAdmin:
		return AdminLoginPath
	default:
		return CandidateLoginPath
	}
}

// HomePathFor maps an authenticated role to its dashboard. Roles without a
// portal of their own land on the unauthorized page.
func HomePathFor(role models.Role) string {
	switch role {
	case models.RoleJobseeker:
		return CandidateHomePath
	case models.RoleEmployer:
		return EmployerHomePath
	default:
		return UnauthorizedPath
	}
}
