package devsnap

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/alicesring/snapdemo/pkg/ringsig"
	"github.com/alicesring/snapdemo/pkg/sign"
)

const envelopeVersion = 1

var artifactEncoding = base64.StdEncoding.Strict()

// envelope is the decoded signature artifact. Field order is the wire order.
type envelope struct {
	Version  int           `json:"v"`
	Variant  string        `json:"variant"`
	Ring     []string      `json:"ring"`
	Message  hexutil.Bytes `json:"message"`
	Domain   string        `json:"domain"`
	KeyImage hexutil.Bytes `json:"keyImage"`
	Nonce    hexutil.Bytes `json:"nonce"`
	Proof    hexutil.Bytes `json:"proof"`
}

// digest is keccak256 of the canonical encoding with an empty proof.
func (e envelope) digest() ([]byte, error) {
	e.Proof = hexutil.Bytes{}
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return ethcrypto.Keccak256(raw), nil
}

func (e envelope) encode() (ringsig.Signature, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return ringsig.Signature(artifactEncoding.EncodeToString(raw)), nil
}

// decodeEnvelope accepts only artifacts that re-encode to the same bytes.
func decodeEnvelope(sig ringsig.Signature) (envelope, error) {
	raw, err := artifactEncoding.DecodeString(string(sig))
	if err != nil {
		return envelope{}, ringsig.ErrMalformedSignature
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var e envelope
	if err := dec.Decode(&e); err != nil || dec.More() {
		return envelope{}, ringsig.ErrMalformedSignature
	}

	canonical, err := json.Marshal(e)
	if err != nil || !bytes.Equal(canonical, raw) {
		return envelope{}, ringsig.ErrMalformedSignature
	}

	if e.Version != envelopeVersion || len(e.Ring) == 0 || len(e.Proof) != 65 {
		return envelope{}, ringsig.ErrMalformedSignature
	}
	switch v, ok := ringsig.ParseVariant(e.Variant); {
	case !ok || e.Variant != v.String():
		return envelope{}, ringsig.ErrMalformedSignature
	case v == ringsig.VariantSAG && (e.Domain != "" || len(e.KeyImage) != 0):
		return envelope{}, ringsig.ErrMalformedSignature
	case v == ringsig.VariantLSAG && (e.Domain == "" || len(e.KeyImage) != 32):
		return envelope{}, ringsig.ErrMalformedSignature
	}
	return e, nil
}

// verify reports whether the proof was made by a ring member.
func (e envelope) verify() bool {
	hash, err := e.digest()
	if err != nil {
		return false
	}
	signer, err := sign.RecoverPublicKey(hash, sign.Signature(e.Proof))
	if err != nil {
		return false
	}
	return slices.Contains(e.Ring, signer.String())
}

func normalizeKey(pk string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(pk), "0x"))
}

func normalizeRing(ring ringsig.Ring) []string {
	out := make([]string, len(ring))
	for i, pk := range ring {
		out[i] = normalizeKey(string(pk))
	}
	return out
}
