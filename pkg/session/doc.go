// Package session drives a ringsig.Provider through the client workflow:
//
//	Idle -> ProviderChecked -> AccountBound -> AddressesExported
//	     -> {KeyImagesExported, Signed} -> Verified
//
// The linear part of the workflow is a single stage value. Key images,
// signatures and verification results can only be recorded once addresses
// are exported, so a session never reports results of a stage whose
// dependencies did not complete. Calling an operation early returns a
// ringsig.PreconditionNotMet error naming the missing stage and never reaches
// the provider.
//
// Each provider call runs under its own timeout. Expiry is reported as
// ringsig.ErrProviderUnreachable, cancellation of the caller's context as
// ringsig.ErrDismissed. Nothing is retried.
package session
