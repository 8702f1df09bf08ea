package ringsig

import (
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	_ Provider    = (*MockProvider)(nil)
	_ Linker      = (*MockProvider)(nil)
	_ KeyResolver = (*MockProvider)(nil)
)

const mockSignaturePrefix = "mock"

// MockProvider is a deterministic in-memory Provider.
//
// Signatures have the form mock:<variant>:<tag>:<digest>. Verify accepts
// exactly the signatures this instance issued, reports any other well-formed
// artifact as invalid and anything else as ErrMalformedSignature.
//
// Err fields inject failures per operation. When Gate is set every call
// blocks until Gate yields or is closed; with IgnoreContext the wait also
// ignores ctx, which models a provider that never answers.
type MockProvider struct {
	Installed bool
	// InstallNoop makes Install succeed without installing anything.
	InstallNoop bool
	Addresses   []Address
	PublicKeys  map[Address]PublicKey
	// NoKeyImages lists addresses the provider has nothing to export for.
	NoKeyImages []Address

	DetectErr    error
	InstallErr   error
	ImportErr    error
	AddressesErr error
	KeyImagesErr error
	SignErr      error
	VerifyErr    error

	Gate          chan struct{}
	IgnoreContext bool

	mu      sync.Mutex
	binding Binding
	issued  map[Signature]struct{}
	calls   map[string]int
}

// NewMockProvider returns an installed provider exposing addrs.
func NewMockProvider(addrs ...Address) *MockProvider {
	return &MockProvider{Installed: true, Addresses: addrs}
}

// Calls returns how many times op was invoked.
func (m *MockProvider) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockProvider) enter(ctx context.Context, op string) error {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
	gate := m.Gate
	m.mu.Unlock()

	if gate == nil {
		return nil
	}
	if m.IgnoreContext {
		<-gate
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Detect reports Installed.
func (m *MockProvider) Detect(ctx context.Context) (bool, error) {
	if err := m.enter(ctx, OpDetect); err != nil {
		return false, err
	}
	if m.DetectErr != nil {
		return false, m.DetectErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Installed, nil
}

// Install marks the provider installed unless InstallNoop is set.
func (m *MockProvider) Install(ctx context.Context) error {
	if err := m.enter(ctx, OpInstall); err != nil {
		return err
	}
	if m.InstallErr != nil {
		return m.InstallErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.InstallNoop {
		m.Installed = true
	}
	return nil
}

// ImportAccount returns the same binding on every call.
func (m *MockProvider) ImportAccount(ctx context.Context) (Binding, error) {
	if err := m.enter(ctx, OpImportAccount); err != nil {
		return Binding{}, err
	}
	if m.ImportErr != nil {
		return Binding{}, m.ImportErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Installed {
		return Binding{}, ErrImportUnavailable
	}
	if m.binding.IsZero() {
		m.binding = Binding{ID: "mock-binding-1"}
	}
	return m.binding, nil
}

// GetAddresses returns Addresses for the mock binding.
func (m *MockProvider) GetAddresses(ctx context.Context, b Binding) ([]Address, error) {
	if err := m.enter(ctx, OpGetAddresses); err != nil {
		return nil, err
	}
	if m.AddressesErr != nil {
		return nil, m.AddressesErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.IsZero() || b != m.binding {
		return nil, ErrUnknownBinding
	}
	return slices.Clone(m.Addresses), nil
}

// ExportKeyImages derives one deterministic image per address and domain,
// skipping NoKeyImages.
func (m *MockProvider) ExportKeyImages(ctx context.Context, addrs []Address, domain string) ([]KeyImage, error) {
	if err := m.enter(ctx, OpExportKeyImages); err != nil {
		return nil, err
	}
	if m.KeyImagesErr != nil {
		return nil, m.KeyImagesErr
	}
	var out []KeyImage
	for _, a := range addrs {
		if !slices.Contains(m.Addresses, a) {
			return nil, ErrKeyNotBound
		}
		if slices.Contains(m.NoKeyImages, a) {
			continue
		}
		out = append(out, KeyImage{Address: a, Domain: domain, Value: mockTag(a, domain)})
	}
	if len(out) == 0 {
		return nil, ErrNoKeyImages
	}
	return out, nil
}

// SignSAG issues an untagged signature.
func (m *MockProvider) SignSAG(ctx context.Context, ring Ring, message []byte, signer Address) (Signature, error) {
	return m.sign(ctx, OpSignSAG, VariantSAG, ring, message, signer, "")
}

// SignLSAG issues a signature tagged with the signer's key image.
func (m *MockProvider) SignLSAG(ctx context.Context, ring Ring, message []byte, signer Address, domain string) (Signature, error) {
	return m.sign(ctx, OpSignLSAG, VariantLSAG, ring, message, signer, domain)
}

func (m *MockProvider) sign(ctx context.Context, op string, v Variant, ring Ring, message []byte, signer Address, domain string) (Signature, error) {
	if err := m.enter(ctx, op); err != nil {
		return "", err
	}
	if m.SignErr != nil {
		return "", m.SignErr
	}
	if !slices.Contains(m.Addresses, signer) {
		return "", ErrKeyNotBound
	}

	tag := "-"
	if v == VariantLSAG {
		tag = mockTag(signer, domain)
	}
	parts := [][]byte{[]byte(v.String()), message, []byte(signer), []byte(domain)}
	for _, pk := range ring {
		parts = append(parts, []byte(pk))
	}
	digest := hex.EncodeToString(ethcrypto.Keccak256(parts...))
	sig := Signature(fmt.Sprintf("%s:%s:%s:%s", mockSignaturePrefix, v, tag, digest))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.issued == nil {
		m.issued = make(map[Signature]struct{})
	}
	m.issued[sig] = struct{}{}
	return sig, nil
}

// Verify accepts only signatures issued by m.
func (m *MockProvider) Verify(ctx context.Context, sig Signature) (bool, error) {
	if err := m.enter(ctx, OpVerify); err != nil {
		return false, err
	}
	if m.VerifyErr != nil {
		return false, m.VerifyErr
	}
	if _, _, err := parseMockSignature(sig); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.issued[sig]
	return ok, nil
}

// Link reports whether two LSAG signatures carry the same tag.
func (m *MockProvider) Link(ctx context.Context, a, b Signature) (bool, error) {
	if err := m.enter(ctx, OpLink); err != nil {
		return false, err
	}
	va, ta, err := parseMockSignature(a)
	if err != nil {
		return false, err
	}
	vb, tb, err := parseMockSignature(b)
	if err != nil {
		return false, err
	}
	if va != VariantLSAG || vb != VariantLSAG {
		return false, ErrNotLinkable
	}
	return ta == tb, nil
}

// PublicKey returns PublicKeys[addr], or ErrKeyNotBound when unset.
func (m *MockProvider) PublicKey(ctx context.Context, addr Address) (PublicKey, error) {
	if err := m.enter(ctx, OpResolveKey); err != nil {
		return "", err
	}
	pk, ok := m.PublicKeys[addr]
	if !ok {
		return "", ErrKeyNotBound
	}
	return pk, nil
}

func mockTag(addr Address, domain string) string {
	return "0x" + hex.EncodeToString(ethcrypto.Keccak256([]byte(addr), []byte{0}, []byte(domain)))
}

func parseMockSignature(sig Signature) (Variant, string, error) {
	parts := strings.Split(string(sig), ":")
	if len(parts) != 4 || parts[0] != mockSignaturePrefix {
		return 0, "", ErrMalformedSignature
	}
	v, ok := ParseVariant(parts[1])
	if !ok || parts[1] != v.String() {
		return 0, "", ErrMalformedSignature
	}
	return v, parts[2], nil
}
