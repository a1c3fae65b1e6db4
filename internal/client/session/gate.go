package session

import "strings"

// Action is what the caller should do with the current screen.
type Action int

const (
	// ActionWait means the session is still loading; render nothing yet.
	ActionWait Action = iota
	// ActionRedirect means navigate to Decision.Target instead of rendering.
	ActionRedirect
	// ActionRender means the caller may show the protected content.
	ActionRender
)

// Decision is the outcome of one gate evaluation.
type Decision struct {
	Action Action
	// Target is the navigation destination when Action is ActionRedirect.
	Target string
}

// LoginPath is where unauthenticated users are sent.
const LoginPath = "/login"

// Evaluate decides whether a screen restricted to allowedRoles may render.
// An empty allowedRoles set admits any authenticated role.
// It is pure: re-run it on every state change, it never mutates the session.
//
// Order matters: loading wins over everything, a missing session sends the
// user to login, a role mismatch sends the user to their own home screen
// ("/" + lowercased role, whatever the role is), and only then does the
// screen render.
func Evaluate(allowedRoles []string, sess *Session, loading bool) Decision {
	if loading {
		return Decision{Action: ActionWait}
	}
	if sess == nil || sess.Validate() != nil {
		return Decision{Action: ActionRedirect, Target: LoginPath}
	}
	if len(allowedRoles) == 0 {
		return Decision{Action: ActionRender}
	}

	role := sess.Role()
	for _, allowed := range allowedRoles {
		if strings.EqualFold(allowed, role) {
			return Decision{Action: ActionRender}
		}
	}

	return Decision{Action: ActionRedirect, Target: "/" + strings.ToLower(role)}
}
