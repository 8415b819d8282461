package resolver

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/promptr/internal/catalog"
)

// Markers for the failures that stop a resolution. Test with errors.Is.
var (
	ErrPromptNotFound  = errors.New("prompt not found")
	ErrVersionNotFound = errors.New("prompt version not found")
	ErrDepthExceeded   = errors.New("maximum resolution depth exceeded")
	ErrCycle           = errors.New("prompt reference cycle")
	ErrGuardVariables  = errors.New("guard prompt given variables")
	ErrPolicyViolation = errors.New("prompt type policy violation")
	ErrInvalidRequest  = errors.New("invalid resolution request")
)

func promptNotFound(projectID, id string) error {
	return errors.Mark(errors.Newf("prompt %q not found in project %q", id, projectID), ErrPromptNotFound)
}

func versionNotFound(p *catalog.Prompt, tag string) error {
	err := errors.Mark(errors.Newf("version %q of prompt %q not found", tag, p.ID), ErrVersionNotFound)
	return errors.WithHint(err, `use "latest" or an existing version tag`)
}

func depthExceeded(id string, max int) error {
	err := errors.Mark(errors.Newf("resolving %q exceeds maximum depth %d", id, max), ErrDepthExceeded)
	return errors.WithHint(err, "check for long or circular prompt reference chains")
}

func cycleDetected(id string) error {
	return errors.Mark(errors.Newf("prompt %q is already being resolved", id), ErrCycle)
}

func guardVariables(p *catalog.Prompt, n int) error {
	err := errors.Mark(errors.Newf("guard prompt %q given %d variable(s)", p.ID, n), ErrGuardVariables)
	return errors.WithHint(err, "resolve guard prompts without variables")
}

func policyViolation(parent, child *catalog.Prompt) error {
	err := errors.Mark(
		errors.Newf("%s prompt %q cannot reference %s prompt %q", parent.Type, parent.ID, child.Type, child.ID),
		ErrPolicyViolation,
	)
	switch parent.Type {
	case catalog.TypeGuard:
		return errors.WithHint(err, "GUARD prompts may only reference GUARD prompts")
	default:
		return errors.WithHint(err, "SYSTEM prompts may not reference USER prompts")
	}
}

// checkPolicy enforces the reference rules between prompt types. USER
// prompts may reference anything.
func checkPolicy(parent, child *catalog.Prompt) error {
	switch parent.Type {
	case catalog.TypeGuard:
		if child.Type != catalog.TypeGuard {
			return policyViolation(parent, child)
		}
	case catalog.TypeSystem:
		if child.Type == catalog.TypeUser {
			return policyViolation(parent, child)
		}
	}
	return nil
}

// IsAborting reports whether err, raised while expanding one prompt
// reference, must stop the enclosing resolution instead of leaving that
// placeholder unresolved.
func IsAborting(err error) bool {
	return errors.Is(err, ErrPromptNotFound) ||
		errors.Is(err, ErrPolicyViolation) ||
		errors.Is(err, ErrDepthExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// StatusCode maps a resolution error to an HTTP-style status for outer
// surfaces.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrPromptNotFound), errors.Is(err, ErrVersionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDepthExceeded),
		errors.Is(err, ErrCycle),
		errors.Is(err, ErrGuardVariables),
		errors.Is(err, ErrPolicyViolation),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Hints returns the user-facing hints attached to err, if any.
func Hints(err error) []string {
	return errors.GetAllHints(err)
}
