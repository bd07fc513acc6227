package dacl

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind uint8

const (
	KindUnspecified ErrorKind = iota
	KindNoPermissionSpecified
	KindAmbiguousPermission
	KindInvalidPrincipal
	KindUnknownAccessRight
	KindUnknownExtendedRight
	KindUnknownSimplePermission
	KindMissingCredentialCache
	KindConnection
	KindAuthentication
	KindModifyRejected
)

var errorKindNames = map[ErrorKind]string{
	KindUnspecified:             "Unspecified",
	KindNoPermissionSpecified:   "NoPermissionSpecified",
	KindAmbiguousPermission:     "AmbiguousPermission",
	KindInvalidPrincipal:        "InvalidPrincipal",
	KindUnknownAccessRight:      "UnknownAccessRight",
	KindUnknownExtendedRight:    "UnknownExtendedRight",
	KindUnknownSimplePermission: "UnknownSimplePermission",
	KindMissingCredentialCache:  "MissingCredentialCache",
	KindConnection:              "ConnectionError",
	KindAuthentication:          "AuthenticationFailure",
	KindModifyRejected:          "ModifyRejected",
}

func (k ErrorKind) String() string {
	if name, found := errorKindNames[k]; found {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// IsValidation is true for request problems detected before any network traffic
func (k ErrorKind) IsValidation() bool {
	return k == KindNoPermissionSpecified || k == KindAmbiguousPermission || k == KindInvalidPrincipal
}

// IsUnknownName is true for catalog lookup misses
func (k ErrorKind) IsUnknownName() bool {
	return k == KindUnknownAccessRight || k == KindUnknownExtendedRight || k == KindUnknownSimplePermission
}

// IsProtocol is true for failures reported by the transport or the directory server
func (k ErrorKind) IsProtocol() bool {
	return k == KindConnection || k == KindAuthentication || k == KindModifyRejected
}

// Error carries the structured context belonging to its kind.
// Token is set for validation and lookup errors. ResultCode and TargetDN are set for rejected modifies.
type Error struct {
	Kind       ErrorKind
	Token      string
	TargetDN   string
	ResultCode uint16
	Err        error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindNoPermissionSpecified:
		msg = "no permission specified, use exactly one of extended right, access mask or simple permission"
	case KindAmbiguousPermission:
		msg = fmt.Sprintf("ambiguous permission request, got %v but only one is allowed", e.Token)
	case KindInvalidPrincipal:
		msg = fmt.Sprintf("invalid principal %q", e.Token)
	case KindUnknownAccessRight:
		msg = fmt.Sprintf("unknown access right %q", e.Token)
	case KindUnknownExtendedRight:
		msg = fmt.Sprintf("unknown extended right %q", e.Token)
	case KindUnknownSimplePermission:
		msg = fmt.Sprintf("unknown simple permission %q", e.Token)
	case KindMissingCredentialCache:
		msg = "no Kerberos credential cache supplied and KRB5CCNAME is not usable"
	case KindConnection:
		msg = "connection to directory failed"
	case KindAuthentication:
		msg = "authentication failed"
	case KindModifyRejected:
		if e.ResultCode == 0 {
			msg = fmt.Sprintf("modify of %v failed without a result code from the server", e.TargetDN)
		} else {
			msg = fmt.Sprintf("modify of %v rejected with result code %d", e.TargetDN, e.ResultCode)
		}
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind only, so errors.Is(err, dacl.ErrModifyRejected) works regardless of context
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrNoPermissionSpecified   = &Error{Kind: KindNoPermissionSpecified}
	ErrAmbiguousPermission     = &Error{Kind: KindAmbiguousPermission}
	ErrInvalidPrincipal        = &Error{Kind: KindInvalidPrincipal}
	ErrUnknownAccessRight      = &Error{Kind: KindUnknownAccessRight}
	ErrUnknownExtendedRight    = &Error{Kind: KindUnknownExtendedRight}
	ErrUnknownSimplePermission = &Error{Kind: KindUnknownSimplePermission}
	ErrMissingCredentialCache  = &Error{Kind: KindMissingCredentialCache}
	ErrConnection              = &Error{Kind: KindConnection}
	ErrAuthentication          = &Error{Kind: KindAuthentication}
	ErrModifyRejected          = &Error{Kind: KindModifyRejected}
)

// KindOf digs through wrapping and returns the kind, or KindUnspecified for foreign errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnspecified
}

func newError(kind ErrorKind, token string) *Error {
	return &Error{Kind: kind, Token: token}
}

func ConnectionError(err error) *Error {
	return &Error{Kind: KindConnection, Err: err}
}

func AuthenticationFailure(err error) *Error {
	return &Error{Kind: KindAuthentication, Err: err}
}

func ModifyRejected(resultcode uint16, targetdn string, err error) *Error {
	return &Error{Kind: KindModifyRejected, ResultCode: resultcode, TargetDN: targetdn, Err: err}
}

func MissingCredentialCache(err error) *Error {
	return &Error{Kind: KindMissingCredentialCache, Err: err}
}
