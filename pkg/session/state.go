package session

import "github.com/alicesring/snapdemo/pkg/ringsig"

// State is the externally visible workflow position.
type State uint8

const (
	StateIdle State = iota
	StateProviderChecked
	StateAccountBound
	StateAddressesExported
	StateKeyImagesExported
	StateSigned
	StateVerified
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateProviderChecked:
		return "ProviderChecked"
	case StateAccountBound:
		return "AccountBound"
	case StateAddressesExported:
		return "AddressesExported"
	case StateKeyImagesExported:
		return "KeyImagesExported"
	case StateSigned:
		return "Signed"
	case StateVerified:
		return "Verified"
	default:
		return "Unknown"
	}
}

// Verification is the outcome of verifying one stored signature.
type Verification struct {
	Signature ringsig.Signature
	Valid     bool
}

// Status is a point-in-time copy of a session for rendering.
type Status struct {
	ID            string
	State         State
	Provider      ringsig.ProviderStatus
	Binding       ringsig.Binding
	Addresses     []ringsig.Address
	KeyImages     []ringsig.KeyImage
	Signatures    map[ringsig.Variant]ringsig.Signature
	Verifications map[ringsig.Variant]Verification
}

// PrimaryAddress returns the first exported address, or "".
func (s Status) PrimaryAddress() ringsig.Address {
	if len(s.Addresses) == 0 {
		return ""
	}
	return s.Addresses[0]
}
