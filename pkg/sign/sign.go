package sign

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Signer signs 32-byte digests with a key it never reveals.
type Signer interface {
	PublicKey() PublicKey
	// Sign returns a 65-byte recoverable signature over hash.
	Sign(hash []byte) (Signature, error)
	// KeyImage derives a value that is stable for (key, domain) and reveals
	// nothing about the key across domains.
	KeyImage(domain string) []byte
}

// PublicKey is a ring member.
type PublicKey interface {
	fmt.Stringer // compressed hex, no 0x prefix

	Address() Address
	// Bytes returns the 33-byte compressed encoding.
	Bytes() []byte
	Equals(other PublicKey) bool
}

// Address is an account identifier derived from a public key.
type Address interface {
	fmt.Stringer

	Equals(other Address) bool
}

// Signature is a raw recoverable signature (r || s || v).
type Signature []byte

// MarshalJSON encodes the signature as 0x-prefixed hex.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes 0x-prefixed hex.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	decoded, err := hexutil.Decode(hexStr)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// String returns the 0x-prefixed hex form.
func (s Signature) String() string {
	return hexutil.Encode(s)
}
