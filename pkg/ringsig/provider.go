package ringsig

import "context"

// Operation names, shared by providers, sessions, logs and metrics.
const (
	OpDetect          = "detect"
	OpInstall         = "install"
	OpImportAccount   = "import_account"
	OpGetAddresses    = "get_addresses"
	OpExportKeyImages = "export_key_images"
	OpSignSAG         = "sign_sag"
	OpSignLSAG        = "sign_lsag"
	OpVerify          = "verify"
	OpLink            = "link"
	OpResolveKey      = "resolve_key"
)

// Provider is the external ring-signature capability.
//
// Every method may block on user interaction and must return once ctx is
// done. Implementations report failures with the sentinels of this package.
type Provider interface {
	// Detect reports whether the capability is installed. It never mutates
	// provider state and is safe to call concurrently.
	Detect(ctx context.Context) (bool, error)
	// Install asks the host to install the capability. A nil return does not
	// guarantee Detect succeeds afterwards.
	Install(ctx context.Context) error

	// ImportAccount binds an account, or returns the existing binding.
	ImportAccount(ctx context.Context) (Binding, error)
	// GetAddresses lists the addresses of the bound account in a stable
	// order. ErrNoAddresses signals an account without addresses.
	GetAddresses(ctx context.Context, b Binding) ([]Address, error)
	// ExportKeyImages returns one key image per address for which the
	// provider has one under domain.
	ExportKeyImages(ctx context.Context, addrs []Address, domain string) ([]KeyImage, error)

	SignSAG(ctx context.Context, ring Ring, message []byte, signer Address) (Signature, error)
	SignLSAG(ctx context.Context, ring Ring, message []byte, signer Address, domain string) (Signature, error)
	// Verify accepts artifacts of either variant.
	Verify(ctx context.Context, sig Signature) (bool, error)
}

// Linker is implemented by providers that can tell whether two LSAG
// signatures were produced by the same signer under the same domain.
type Linker interface {
	Link(ctx context.Context, a, b Signature) (bool, error)
}

// KeyResolver is implemented by providers that disclose the public key
// behind one of the bound account's addresses.
type KeyResolver interface {
	PublicKey(ctx context.Context, addr Address) (PublicKey, error)
}
