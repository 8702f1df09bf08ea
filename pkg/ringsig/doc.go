// Package ringsig defines the contract between a client and an external
// ring-signature provider.
//
// The provider owns every piece of key material and all signature math. A
// client reaches it only through Provider, whose methods map one to one onto
// the provider's boundary calls:
//
//	detect          Provider.Detect
//	install         Provider.Install
//	importAccount   Provider.ImportAccount
//	getAddresses    Provider.GetAddresses
//	exportKeyImages Provider.ExportKeyImages
//	sign_SAG        Provider.SignSAG
//	sign_LSAG       Provider.SignLSAG
//	verify          Provider.Verify
//
// Providers may additionally implement Linker and KeyResolver; callers detect
// them with a type assertion.
//
// Every failure a provider reports should be one of the *Error sentinels in
// this package, possibly wrapped. Kind groups them into the categories a
// presentation layer renders differently and UserMessage turns any of them
// into a single actionable sentence.
package ringsig
