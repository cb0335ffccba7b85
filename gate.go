package session

// Decision is the authorization outcome for a navigation attempt.
type Decision string

const (
	// DecisionProceed lets the navigation through.
	DecisionProceed Decision = "proceed"
	// DecisionRedirectToLogin sends the visitor to the login flow, which
	// should return them to the originally requested location afterwards.
	DecisionRedirectToLogin Decision = "redirect_to_login"
	// DecisionRedirectToHome sends an authenticated but misrouted subject
	// back to their home, not to login.
	DecisionRedirectToHome Decision = "redirect_to_home"
)

// Authorize decides whether the current snapshot may access a route guarded
// by the given role set. It is total, synchronous and side-effect free, and
// must be re-evaluated on every navigation since the Identity can change
// between them.
//
// Calling Authorize before the snapshot has resolved is a caller contract
// violation: check Snapshot.Resolved first and render a loading state. For
// totality a bootstrapping snapshot maps to DecisionRedirectToLogin, the
// fail-closed default.
func Authorize(snapshot Snapshot, allowed RoleSet) Decision {
	if !snapshot.Authenticated() {
		return DecisionRedirectToLogin
	}

	if len(allowed) == 0 {
		return DecisionProceed
	}

	if allowed.Contains(snapshot.Identity.Role) {
		return DecisionProceed
	}

	return DecisionRedirectToHome
}
