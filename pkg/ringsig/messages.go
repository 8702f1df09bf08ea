package ringsig

import "errors"

var messages = map[string]string{
	ErrInstallUnavailable.Code: "The signing provider cannot be installed in this environment.",
	ErrImportUnavailable.Code:  "Install the signing provider before importing an account.",
	ErrNotInstalled.Code:       "The signing provider is not installed. Run the provider check first.",
	ErrUnsupported.Code:        "The signing provider does not offer this operation.",

	ErrInstallRejected.Code: "Installation was declined. Run the provider check again to retry.",
	ErrImportDenied.Code:    "Account import was declined. Import again and approve the request.",
	ErrKeyImagesDenied.Code: "Key image export was declined. Export again and approve the request.",
	ErrSigningDenied.Code:   "Signing was declined. Sign again and approve the request.",
	ErrDismissed.Code:       "The request was dismissed before the provider answered.",

	ErrNoAddresses.Code: "The bound account has no addresses. Add an address in the provider, then export again.",
	ErrNoKeyImages.Code: "The provider has no key images for these addresses under this domain.",

	ErrProviderUnreachable.Code: "The signing provider did not respond. Check that it is running and try again.",

	ErrMalformedSignature.Code: "The signature could not be parsed as a ring-signature artifact.",

	ErrKeyNotBound.Code:     "The signer address is not controlled by the bound account.",
	ErrSignerNotInRing.Code: "The signer's public key is not in the ring. Add it to the ring and sign again.",
	ErrUnknownBinding.Code:  "The provider does not recognise this account binding. Import the account again.",

	ErrInFlight.Code:           "This operation is already running. Wait for it to finish.",
	ErrAddressNotExported.Code: "Only exported addresses can be used. Export addresses first.",
	ErrInvalidRequest.Code:     "The request is incomplete. Check the ring, message and domain.",
	ErrNotLinkable.Code:        "Only LSAG signatures carry a linkability tag.",
}

var preconditionMessages = map[string]string{
	StageProvider:  "Check or install the signing provider first.",
	StageAccount:   "Import an account first.",
	StageAddresses: "Export addresses first.",
	StageSignature: "Sign a message first.",
}

// UserMessage maps err to one sentence suitable for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return "Unexpected error: " + err.Error()
	}
	if e.Code == ErrPreconditionNotMet.Code {
		if msg, ok := preconditionMessages[e.Stage]; ok {
			return msg
		}
		return "A previous step has not completed yet."
	}
	if msg, ok := messages[e.Code]; ok {
		return msg
	}
	return e.Error()
}
