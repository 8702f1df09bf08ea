package sign

import (
	"strings"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrivKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddress = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

func TestEthereumSigner(t *testing.T) {
	signer, err := NewEthereumSigner(testPrivKey)
	require.NoError(t, err)

	t.Run("Address", func(t *testing.T) {
		assert.Equal(t, testAddress, signer.PublicKey().Address().String())
	})

	t.Run("Compressed public key", func(t *testing.T) {
		pub := signer.PublicKey()
		require.Len(t, pub.Bytes(), 33)
		assert.Len(t, pub.String(), 66)
		assert.False(t, strings.HasPrefix(pub.String(), "0x"))

		parsed, err := ParsePublicKey(pub.String())
		require.NoError(t, err)
		assert.True(t, parsed.Equals(pub))
		assert.True(t, parsed.Address().Equals(pub.Address()))
	})

	t.Run("Sign and recover", func(t *testing.T) {
		hash := ethcrypto.Keccak256([]byte("Hello Snap!"))
		sig, err := signer.Sign(hash)
		require.NoError(t, err)
		require.Len(t, sig, 65)

		recovered, err := RecoverPublicKey(hash, sig)
		require.NoError(t, err)
		assert.True(t, recovered.Equals(signer.PublicKey()))
	})

	t.Run("Recover with another hash yields another key", func(t *testing.T) {
		sig, err := signer.Sign(ethcrypto.Keccak256([]byte("a")))
		require.NoError(t, err)

		recovered, err := RecoverPublicKey(ethcrypto.Keccak256([]byte("b")), sig)
		if err == nil {
			assert.False(t, recovered.Equals(signer.PublicKey()))
		}
	})

	t.Run("Key image is per domain", func(t *testing.T) {
		a := signer.KeyImage("demo-snap-signature")
		assert.Equal(t, a, signer.KeyImage("demo-snap-signature"))
		assert.Len(t, a, 32)
		assert.NotEqual(t, a, signer.KeyImage("another-domain"))
	})

	t.Run("Accepts key without prefix", func(t *testing.T) {
		other, err := NewEthereumSigner(strings.TrimPrefix(testPrivKey, "0x"))
		require.NoError(t, err)
		assert.True(t, other.PublicKey().Equals(signer.PublicKey()))
	})
}

func TestNewEthereumSigner_Invalid(t *testing.T) {
	for _, key := range []string{"", "0x1234", "not-hex"} {
		_, err := NewEthereumSigner(key)
		assert.Error(t, err, key)
	}
}

func TestParsePublicKey(t *testing.T) {
	t.Run("Invalid", func(t *testing.T) {
		for _, k := range []string{"", "02", "zz" + strings.Repeat("00", 32), "04" + strings.Repeat("00", 32)} {
			_, err := ParsePublicKey(k)
			assert.ErrorIs(t, err, ErrInvalidPublicKey, k)
		}
	})

	t.Run("Signature size", func(t *testing.T) {
		_, err := RecoverPublicKey(make([]byte, 32), make(Signature, 64))
		assert.ErrorIs(t, err, ErrInvalidSignatureSize)
	})
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(strings.ToLower(testAddress))
	require.NoError(t, err)
	assert.Equal(t, testAddress, addr.String())

	_, err = ParseAddress("0x1234")
	assert.Error(t, err)
}
