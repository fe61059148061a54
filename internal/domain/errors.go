package domain

import "errors"

var (
	// ErrInvalidPhaseKey indicates a phase key outside the eight defined
	// phases. This is a programmer error, not a runtime condition.
	ErrInvalidPhaseKey = errors.New("invalid phase key")

	// ErrPhaseMismatch indicates a submission targeted a phase the project
	// has already left. Recoverable: the client refreshes and resubmits.
	ErrPhaseMismatch = errors.New("phase does not match project's current phase")

	// ErrRequirementNotFound indicates an unknown requirement id.
	ErrRequirementNotFound = errors.New("requirement not found")

	// ErrUnauthorizedToggle indicates a client-role actor attempted to toggle
	// a requirement kind that is only completed by its dedicated adapter.
	ErrUnauthorizedToggle = errors.New("requirement kind is not client-toggleable")

	// ErrProjectArchived indicates a trigger targeted an archived project.
	ErrProjectArchived = errors.New("project is archived")

	// ErrWebhookVerification indicates a webhook payload failed signature
	// verification. The event must be rejected, never processed.
	ErrWebhookVerification = errors.New("webhook signature verification failed")
)
