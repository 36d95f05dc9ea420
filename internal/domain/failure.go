package domain

// FailureKind is the structured classification of a verification or audit
// outcome. It carries the same information a caller could previously only
// recover by substring-matching Message, so callers should branch on it
// rather than on the text.
type FailureKind int

const (
	// KindNone means the call succeeded.
	KindNone FailureKind = iota
	// KindUnauthorized covers HTTP 401: the token is invalid or expired.
	KindUnauthorized
	// KindForbidden covers HTTP 403 with no more specific reason.
	KindForbidden
	// KindRateLimited covers HTTP 403 responses caused by rate limiting.
	KindRateLimited
	// KindInsufficientScope covers HTTP 403 responses caused by a token that
	// lacks the required permissions.
	KindInsufficientScope
	// KindNotFound covers HTTP 404.
	KindNotFound
	// KindUnexpectedStatus covers any other HTTP status.
	KindUnexpectedStatus
	// KindTimeout means the request exceeded its deadline.
	KindTimeout
	// KindNetwork means the server was never reached.
	KindNetwork
	// KindBadPayload means the response body was not the expected format.
	KindBadPayload
	// KindInternal covers any other unexpected failure.
	KindInternal
)

// String returns a stable machine-friendly name for the kind.
func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	case KindInsufficientScope:
		return "insufficient_scope"
	case KindNotFound:
		return "not_found"
	case KindUnexpectedStatus:
		return "unexpected_status"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindBadPayload:
		return "bad_payload"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Transport reports whether the failure happened before any HTTP response
// arrived. Transport failures carry negative sentinel status codes.
func (k FailureKind) Transport() bool {
	switch k {
	case KindTimeout, KindNetwork, KindBadPayload, KindInternal:
		return true
	default:
		return false
	}
}

// MarshalText lets the kind render as its name in JSON payloads.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
