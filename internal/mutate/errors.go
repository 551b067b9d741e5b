package mutate

import "fmt"

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// PermissionDeniedError means the policy refused the action. The UI surfaces
// it as a re-auth prompt; it is never silently dropped.
type PermissionDeniedError struct {
	ActorID string
	Action  string
}

func (e PermissionDeniedError) Error() string {
	if e.ActorID == "" {
		return fmt.Sprintf("permission denied: %s (not signed in)", e.Action)
	}
	return fmt.Sprintf("permission denied: %s", e.Action)
}
