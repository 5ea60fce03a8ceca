package access

import (
	"encoding/json"
	"net/http"
)

type Outcome int

const (
	Unresolved Outcome = iota
	Denied
	Granted
)

func (o Outcome) String() string {
	switch o {
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	default:
		return "loading"
	}
}

// Decision is the result of a guard. Message is only set when Denied.
type Decision struct {
	Outcome Outcome
	Message string
}

const (
	MsgLoginRequired = "Please log in to access your account."
	MsgAdminRequired = "Admin access required."
)

// AccountGuard admits any authenticated caller.
func AccountGuard(st UserState) Decision {
	if !st.IsAuthenticated {
		return Decision{Outcome: Denied, Message: MsgLoginRequired}
	}
	return Decision{Outcome: Granted}
}

// AdminGuard stays Unresolved until the admin check has finished, so neither the
// protected content nor the denial is shown early.
func AdminGuard(st UserState) Decision {
	if !st.IsAuthenticated {
		return Decision{Outcome: Denied, Message: MsgAdminRequired}
	}
	if st.IsLoading || !st.IsAdminLoaded {
		return Decision{Outcome: Unresolved}
	}
	if !st.IsAdmin {
		return Decision{Outcome: Denied, Message: MsgAdminRequired}
	}
	return Decision{Outcome: Granted}
}

type guardBody struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// Render writes the non-granted outcomes. It reports false when the decision is
// Granted and nothing was written.
func Render(w http.ResponseWriter, d Decision) bool {
	var status int
	switch d.Outcome {
	case Granted:
		return false
	case Unresolved:
		w.Header().Set("Retry-After", "1")
		status = http.StatusAccepted
	default:
		status = http.StatusForbidden
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(guardBody{State: d.Outcome.String(), Message: d.Message})
	return true
}

// StateFunc resolves the caller's state for a request.
type StateFunc func(r *http.Request) UserState

// Require wraps next with guard. The resolved state is available to next through
// StateFrom.
func Require(state StateFunc, guard func(UserState) Decision, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := state(r)
		if Render(w, guard(st)) {
			return
		}
		next.ServeHTTP(w, r.WithContext(withState(r.Context(), st)))
	})
}
