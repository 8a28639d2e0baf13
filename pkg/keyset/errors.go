package keyset

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a verification failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNoKeyID: the token header has no usable "kid".
	KindNoKeyID
	// KindInvalidSignature: the signature did not verify against the resolved key.
	KindInvalidSignature
	// KindTokenExpired: claims validation found the token expired.
	KindTokenExpired
	// KindMalformedToken: decode failure, algorithm mismatch or a claim predicate mismatch.
	KindMalformedToken
	// KindNetwork: the key set fetch failed or was refused by the refresh throttle.
	KindNetwork
	// KindCacheMiss: the non-blocking path found no cached key.
	KindCacheMiss
)

func (k Kind) String() string {
	switch k {
	case KindNoKeyID:
		return "no_key_id"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindTokenExpired:
		return "token_expired"
	case KindMalformedToken:
		return "malformed_token"
	case KindNetwork:
		return "network"
	case KindCacheMiss:
		return "cache_miss"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; any *Error of the same Kind matches.
var (
	ErrNoKeyID          = &Error{Kind: KindNoKeyID}
	ErrInvalidSignature = &Error{Kind: KindInvalidSignature}
	ErrTokenExpired     = &Error{Kind: KindTokenExpired}
	ErrMalformedToken   = &Error{Kind: KindMalformedToken}
	ErrNetwork          = &Error{Kind: KindNetwork}
	ErrCacheMiss        = &Error{Kind: KindCacheMiss}
)

// Causes carried by KindNetwork errors.
var (
	// ErrThrottled is the cause when a refresh was refused because the last
	// successful refresh is younger than the minimum fetch interval.
	ErrThrottled = errors.New("Key set is currently unreachable (throttled)")

	// ErrKeyNotFound is the cause when a fresh key set still lacks the kid.
	ErrKeyNotFound = errors.New("key set has no matching kid")
)

// Error is the single error type returned by this package.
//
// ExpiredAt is only set for KindTokenExpired. LastRefresh is only meaningful for
// KindCacheMiss; the zero time means the key set has never been fetched.
type Error struct {
	Kind        Kind
	Desc        string
	ExpiredAt   time.Time
	LastRefresh time.Time
	Err         error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNoKeyID:
		return "Token had no 'kid' value"
	case KindInvalidSignature:
		return "JWT Signature Invalid"
	case KindTokenExpired:
		return fmt.Sprintf("JWT token expired at %d", e.ExpiredAt.Unix())
	case KindMalformedToken:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "JWT claims invalid: " + e.Desc
	case KindNetwork:
		return "Error fetching JWKS key set: " + e.Desc
	case KindCacheMiss:
		return "Failed to lookup corresponding Algorithm / key"
	default:
		return "Unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Refreshed returns the last successful refresh carried by a cache miss.
func (e *Error) Refreshed() (time.Time, bool) {
	return e.LastRefresh, !e.LastRefresh.IsZero()
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func malformed(desc string, cause error) *Error {
	return &Error{Kind: KindMalformedToken, Desc: desc, Err: cause}
}

func networkError(desc string, cause error) *Error {
	return &Error{Kind: KindNetwork, Desc: desc, Err: cause}
}
