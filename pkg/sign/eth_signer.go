package sign

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	_ Signer    = (*EthereumSigner)(nil)
	_ PublicKey = EthereumPublicKey{}
	_ Address   = EthereumAddress{}
)

var (
	ErrInvalidPublicKey     = errors.New("invalid compressed public key")
	ErrInvalidSignatureSize = errors.New("invalid signature length")
)

// keyImagePrefix separates key-image preimages from any other keccak input.
var keyImagePrefix = []byte("snapdemo:key-image:v1")

// EthereumAddress is a 20-byte address rendered in EIP-55 checksum form.
type EthereumAddress struct{ common.Address }

// String returns the EIP-55 checksummed hex address.
func (a EthereumAddress) String() string { return a.Address.Hex() }

// Equals compares addresses case-insensitively.
func (a EthereumAddress) Equals(other Address) bool {
	if o, ok := other.(EthereumAddress); ok {
		return a.Address == o.Address
	}
	return strings.EqualFold(a.String(), other.String())
}

// ParseAddress accepts a 0x-prefixed 20-byte hex address in any case.
func ParseAddress(s string) (EthereumAddress, error) {
	if !common.IsHexAddress(s) {
		return EthereumAddress{}, fmt.Errorf("invalid address %q", s)
	}
	return EthereumAddress{common.HexToAddress(s)}, nil
}

// EthereumPublicKey is a secp256k1 public key.
type EthereumPublicKey struct{ *ecdsa.PublicKey }

// Address derives the Ethereum address of the key.
func (p EthereumPublicKey) Address() Address {
	return EthereumAddress{ethcrypto.PubkeyToAddress(*p.PublicKey)}
}

// Bytes returns the 33-byte compressed key.
func (p EthereumPublicKey) Bytes() []byte { return ethcrypto.CompressPubkey(p.PublicKey) }

// String returns the compressed key as hex without a prefix.
func (p EthereumPublicKey) String() string { return hex.EncodeToString(p.Bytes()) }

// Equals compares the compressed encodings.
func (p EthereumPublicKey) Equals(other PublicKey) bool {
	return bytes.Equal(p.Bytes(), other.Bytes())
}

// ParsePublicKey decodes a compressed key, with or without a 0x prefix.
func ParsePublicKey(s string) (EthereumPublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(raw) != 33 {
		return EthereumPublicKey{}, fmt.Errorf("%w: %q", ErrInvalidPublicKey, s)
	}
	pub, err := ethcrypto.DecompressPubkey(raw)
	if err != nil {
		return EthereumPublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return EthereumPublicKey{pub}, nil
}

// EthereumSigner holds a secp256k1 private key.
type EthereumSigner struct {
	privateKey *ecdsa.PrivateKey
	publicKey  EthereumPublicKey
}

// NewEthereumSigner parses a hex private key, with or without 0x.
func NewEthereumSigner(privateKeyHex string) (*EthereumSigner, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("could not parse private key: %w", err)
	}
	return &EthereumSigner{
		privateKey: key,
		publicKey:  EthereumPublicKey{&key.PublicKey},
	}, nil
}

// PublicKey returns the signer's public key.
func (s *EthereumSigner) PublicKey() PublicKey { return s.publicKey }

// Sign expects a 32-byte digest. V is left as 0/1.
func (s *EthereumSigner) Sign(hash []byte) (Signature, error) {
	sig, err := ethcrypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, err
	}
	return Signature(sig), nil
}

// KeyImage returns the 32-byte linkability tag of this key under domain.
// It is deterministic and differs across domains.
func (s *EthereumSigner) KeyImage(domain string) []byte {
	return ethcrypto.Keccak256(keyImagePrefix, []byte(domain), ethcrypto.FromECDSA(s.privateKey))
}

// RecoverPublicKey returns the key that produced sig over hash.
func RecoverPublicKey(hash []byte, sig Signature) (EthereumPublicKey, error) {
	if len(sig) != 65 {
		return EthereumPublicKey{}, ErrInvalidSignatureSize
	}
	pub, err := ethcrypto.SigToPub(hash, sig)
	if err != nil {
		return EthereumPublicKey{}, fmt.Errorf("signature recovery failed: %w", err)
	}
	return EthereumPublicKey{pub}, nil
}
