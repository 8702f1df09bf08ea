package ringsig

import (
	"slices"
	"strings"
)

// ProviderStatus tracks provider availability within a session.
type ProviderStatus uint8

const (
	StatusNotDetected ProviderStatus = iota
	StatusInstalling
	StatusInstalled
)

// String returns the status name.
func (s ProviderStatus) String() string {
	switch s {
	case StatusNotDetected:
		return "NotDetected"
	case StatusInstalling:
		return "Installing"
	case StatusInstalled:
		return "Installed"
	default:
		return "Unknown"
	}
}

// Binding is the opaque handle of an account imported into the provider.
type Binding struct {
	ID string `json:"id"`
}

// IsZero reports whether no account is bound.
func (b Binding) IsZero() bool { return b.ID == "" }

// Address identifies a key controlled by the bound account.
type Address string

// PublicKey is a ring member as the provider encodes it.
type PublicKey string

// Ring is an ordered list of public keys.
type Ring []PublicKey

// Clone returns a copy that later edits to r cannot reach.
func (r Ring) Clone() Ring { return slices.Clone(r) }

// Contains reports whether pk is a member, compared as encoded.
func (r Ring) Contains(pk PublicKey) bool { return slices.Contains(r, pk) }

// KeyImage is the linkability value of Address under Domain.
type KeyImage struct {
	Address Address `json:"address"`
	Domain  string  `json:"domain"`
	Value   string  `json:"keyImage"`
}

// Variant selects the signature scheme.
type Variant uint8

const (
	VariantSAG Variant = iota + 1
	VariantLSAG
)

// String returns "SAG" or "LSAG".
func (v Variant) String() string {
	switch v {
	case VariantSAG:
		return "SAG"
	case VariantLSAG:
		return "LSAG"
	default:
		return "Unknown"
	}
}

// ParseVariant accepts the names returned by Variant.String, in any case.
func ParseVariant(s string) (Variant, bool) {
	switch {
	case strings.EqualFold(s, "SAG"):
		return VariantSAG, true
	case strings.EqualFold(s, "LSAG"):
		return VariantLSAG, true
	default:
		return 0, false
	}
}

// Signature is a self-describing signature artifact. Verifying it requires
// nothing but the artifact itself.
type Signature string
