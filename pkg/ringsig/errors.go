package ringsig

import (
	"errors"
	"fmt"
)

// Kind is the category of a provider or session failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindCapabilityUnavailable: the provider is missing or cannot be installed.
	KindCapabilityUnavailable
	// KindUserDenied: the user rejected or dismissed a prompt.
	KindUserDenied
	// KindPreconditionNotMet: a stage was invoked before its dependency.
	KindPreconditionNotMet
	// KindEmptyResult: a legitimate zero-item outcome.
	KindEmptyResult
	// KindProviderUnreachable: transport failure or timeout.
	KindProviderUnreachable
	// KindMalformedSignature: the artifact could not be parsed.
	KindMalformedSignature
	// KindRejected: the provider refused the request as posed.
	KindRejected
	// KindInvalidRequest: the caller's arguments failed validation.
	KindInvalidRequest
)

// String returns the kind name used in metrics and span status.
func (k Kind) String() string {
	switch k {
	case KindCapabilityUnavailable:
		return "CapabilityUnavailable"
	case KindUserDenied:
		return "UserDenied"
	case KindPreconditionNotMet:
		return "PreconditionNotMet"
	case KindEmptyResult:
		return "EmptyResult"
	case KindProviderUnreachable:
		return "ProviderUnreachable"
	case KindMalformedSignature:
		return "MalformedSignature"
	case KindRejected:
		return "Rejected"
	case KindInvalidRequest:
		return "InvalidRequest"
	default:
		return "Unknown"
	}
}

// Stages named by PreconditionNotMet.
const (
	StageProvider  = "provider"
	StageAccount   = "account"
	StageAddresses = "addresses"
	StageSignature = "signature"
)

// Error is a classified failure.
//
// errors.Is matches two *Error values by Code. A target that names a Stage
// matches only that stage; a target without one matches every stage, so
//
//	errors.Is(err, ErrPreconditionNotMet)
//
// holds for any precondition failure while
//
//	errors.Is(err, PreconditionNotMet(StageAddresses))
//
// holds only for the addresses stage.
type Error struct {
	Kind  Kind
	Code  string
	Stage string
	msg   string
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, msg: msg}
}

// Error renders the message, followed by the stage when one is set.
func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s", e.msg, e.Stage)
	}
	return e.msg
}

// Is matches errors with the same code. A target that names a stage
// matches only that stage.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Stage == "" || t.Stage == e.Stage
}

var (
	ErrInstallUnavailable = newError(KindCapabilityUnavailable, "install_unavailable", "provider cannot be installed")
	ErrImportUnavailable  = newError(KindCapabilityUnavailable, "import_unavailable", "account import unavailable: provider is not installed")
	ErrNotInstalled       = newError(KindCapabilityUnavailable, "not_installed", "provider is not installed")
	ErrUnsupported        = newError(KindCapabilityUnavailable, "unsupported", "provider does not support this operation")

	ErrInstallRejected = newError(KindUserDenied, "install_rejected", "installation rejected")
	ErrImportDenied    = newError(KindUserDenied, "import_denied", "account import denied")
	ErrKeyImagesDenied = newError(KindUserDenied, "key_images_denied", "key image export denied")
	ErrSigningDenied   = newError(KindUserDenied, "signing_denied", "signing denied")
	ErrDismissed       = newError(KindUserDenied, "dismissed", "request dismissed")

	ErrPreconditionNotMet = newError(KindPreconditionNotMet, "precondition_not_met", "precondition not met")

	ErrNoAddresses = newError(KindEmptyResult, "no_addresses", "account exposes no addresses")
	ErrNoKeyImages = newError(KindEmptyResult, "no_key_images", "no key images to export")

	ErrProviderUnreachable = newError(KindProviderUnreachable, "provider_unreachable", "provider unreachable")

	ErrMalformedSignature = newError(KindMalformedSignature, "malformed_signature", "malformed signature")

	ErrKeyNotBound     = newError(KindRejected, "key_not_bound", "signer is not controlled by the bound account")
	ErrSignerNotInRing = newError(KindRejected, "signer_not_in_ring", "signer key is not a ring member")
	ErrUnknownBinding  = newError(KindRejected, "unknown_binding", "unknown account binding")

	ErrInFlight           = newError(KindInvalidRequest, "in_flight", "operation already in flight")
	ErrAddressNotExported = newError(KindInvalidRequest, "address_not_exported", "address is not in the exported set")
	ErrInvalidRequest     = newError(KindInvalidRequest, "invalid_request", "invalid request")
	ErrNotLinkable        = newError(KindInvalidRequest, "not_linkable", "only LSAG signatures can be linked")
)

// PreconditionNotMet reports that stage has not completed yet.
func PreconditionNotMet(stage string) *Error {
	e := *ErrPreconditionNotMet
	e.Stage = stage
	return &e
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StageOf returns the stage of a precondition failure, or "".
func StageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
