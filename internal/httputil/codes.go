package httputil

// Machine-readable error codes returned alongside error messages.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"

	CodeSlugTaken     = "slug_taken"
	CodeUsernameTaken = "username_taken"
	CodeEmailTaken    = "email_taken"

	CodeNotFound     = "not_found"
	CodeLinkInactive = "link_inactive"

	// CodeUnauthorized covers both unknown username and wrong password so the
	// two cases are indistinguishable to a client.
	CodeUnauthorized = "unauthorized"
	CodeMissingAuth  = "missing_authentication"

	CodeInternalError = "internal_error"

	// CodeOutcomeUnknown means the request timed out while a storage operation
	// was still in flight. The operation may still have completed.
	CodeOutcomeUnknown = "outcome_unknown"
)
