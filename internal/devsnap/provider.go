package devsnap

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/alicesring/snapdemo/internal/keystore"
	"github.com/alicesring/snapdemo/pkg/log"
	"github.com/alicesring/snapdemo/pkg/ringsig"
	"github.com/alicesring/snapdemo/pkg/sign"
)

var (
	_ ringsig.Provider    = (*Provider)(nil)
	_ ringsig.Linker      = (*Provider)(nil)
	_ ringsig.KeyResolver = (*Provider)(nil)
)

const nonceSize = 32

// Provider implements ringsig.Provider on top of a keystore.
type Provider struct {
	store  *keystore.Store
	prompt Prompter
	lg     log.Logger
}

// NewProvider serves keys from store and asks prompt for every approval.
func NewProvider(store *keystore.Store, prompt Prompter, lg log.Logger) *Provider {
	return &Provider{store: store, prompt: prompt, lg: lg.WithName("devsnap")}
}

// Detect reports whether the keystore schema exists.
func (p *Provider) Detect(ctx context.Context) (bool, error) {
	return p.store.IsInstalled(ctx)
}

// Install creates the keystore schema after the user confirms. It is a
// no-op when already installed.
func (p *Provider) Install(ctx context.Context) error {
	installed, err := p.store.IsInstalled(ctx)
	if err != nil {
		return err
	}
	if installed {
		return nil
	}

	ok, err := p.prompt.Confirm(ctx, "Install snapdemo provider",
		"The development ring-signature provider will create its keystore.")
	if err != nil {
		return err
	}
	if !ok {
		return ringsig.ErrInstallRejected
	}

	if err := p.store.Install(ctx); err != nil {
		p.lg.Error("keystore install failed", "error", err)
		return fmt.Errorf("%w: %v", ringsig.ErrInstallUnavailable, err)
	}
	return nil
}

// ImportAccount binds the stored account, or asks for a private key and
// creates one.
func (p *Provider) ImportAccount(ctx context.Context) (ringsig.Binding, error) {
	if err := p.requireInstalled(ctx, ringsig.ErrImportUnavailable); err != nil {
		return ringsig.Binding{}, err
	}

	acc, err := p.store.Account(ctx)
	if err == nil {
		return ringsig.Binding{ID: acc.ID}, nil
	}
	if !errors.Is(err, keystore.ErrNotFound) {
		return ringsig.Binding{}, err
	}

	secret, err := p.prompt.Secret(ctx, "Private key to import")
	if err != nil {
		return ringsig.Binding{}, err
	}
	if strings.TrimSpace(secret) == "" {
		return ringsig.Binding{}, ringsig.ErrImportDenied
	}
	if _, err := sign.NewEthereumSigner(secret); err != nil {
		return ringsig.Binding{}, fmt.Errorf("%w: %v", ringsig.ErrInvalidRequest, err)
	}

	acc, err = p.store.CreateAccount(ctx, strings.TrimSpace(secret))
	if err != nil {
		return ringsig.Binding{}, err
	}
	p.lg.Info("account imported", "binding", acc.ID)
	return ringsig.Binding{ID: acc.ID}, nil
}

// GetAddresses lists the account's addresses in the order they were added.
func (p *Provider) GetAddresses(ctx context.Context, b ringsig.Binding) ([]ringsig.Address, error) {
	acc, err := p.boundAccount(ctx)
	if err != nil {
		return nil, err
	}
	if b.ID != acc.ID {
		return nil, ringsig.ErrUnknownBinding
	}

	keys, err := p.store.Keys(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ringsig.ErrNoAddresses
	}
	addrs := make([]ringsig.Address, len(keys))
	for i, k := range keys {
		addrs[i] = ringsig.Address(k.Address)
	}
	return addrs, nil
}

// AddKey stores another key for the bound account. Its address is appended
// to the account's address list.
func (p *Provider) AddKey(ctx context.Context, b ringsig.Binding, privateKeyHex string) (ringsig.Address, error) {
	acc, err := p.boundAccount(ctx)
	if err != nil {
		return "", err
	}
	if b.ID != acc.ID {
		return "", ringsig.ErrUnknownBinding
	}
	key, err := p.store.AddKey(ctx, acc.ID, privateKeyHex)
	if err != nil {
		return "", err
	}
	return ringsig.Address(key.Address), nil
}

// ExportKeyImages returns one key image per address after the user
// approves the export.
func (p *Provider) ExportKeyImages(ctx context.Context, addrs []ringsig.Address, domain string) ([]ringsig.KeyImage, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ringsig.ErrInvalidRequest)
	}
	if len(addrs) == 0 {
		return nil, ringsig.ErrNoKeyImages
	}

	signers := make([]*sign.EthereumSigner, len(addrs))
	for i, a := range addrs {
		s, err := p.signer(ctx, a)
		if err != nil {
			return nil, err
		}
		signers[i] = s
	}

	body := fmt.Sprintf("Export key images for %s under domain %q.", joinAddresses(addrs), domain)
	ok, err := p.prompt.Confirm(ctx, "Export key images", body)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ringsig.ErrKeyImagesDenied
	}

	out := make([]ringsig.KeyImage, len(addrs))
	for i, s := range signers {
		out[i] = ringsig.KeyImage{
			Address: addrs[i],
			Domain:  domain,
			Value:   hexutil.Encode(s.KeyImage(domain)),
		}
	}
	return out, nil
}

// SignSAG signs message over ring as signer.
func (p *Provider) SignSAG(ctx context.Context, ring ringsig.Ring, message []byte, signer ringsig.Address) (ringsig.Signature, error) {
	return p.sign(ctx, ringsig.VariantSAG, ring, message, signer, "")
}

// SignLSAG signs message over ring as signer and embeds the signer's key
// image under domain.
func (p *Provider) SignLSAG(ctx context.Context, ring ringsig.Ring, message []byte, signer ringsig.Address, domain string) (ringsig.Signature, error) {
	if domain == "" {
		return "", fmt.Errorf("%w: empty domain", ringsig.ErrInvalidRequest)
	}
	return p.sign(ctx, ringsig.VariantLSAG, ring, message, signer, domain)
}

func (p *Provider) sign(ctx context.Context, v ringsig.Variant, ring ringsig.Ring, message []byte, addr ringsig.Address, domain string) (ringsig.Signature, error) {
	if len(ring) == 0 {
		return "", fmt.Errorf("%w: empty ring", ringsig.ErrInvalidRequest)
	}
	signer, err := p.signer(ctx, addr)
	if err != nil {
		return "", err
	}

	env := envelope{
		Version: envelopeVersion,
		Variant: v.String(),
		Ring:    normalizeRing(ring),
		Message: hexutil.Bytes(message),
		Domain:  domain,
		Nonce:   make(hexutil.Bytes, nonceSize),
	}
	if !slices.Contains(env.Ring, signer.PublicKey().String()) {
		return "", ringsig.ErrSignerNotInRing
	}
	if v == ringsig.VariantLSAG {
		env.KeyImage = signer.KeyImage(domain)
	}

	body := fmt.Sprintf("Sign %q with %s as one of %d ring members.", message, addr, len(ring))
	ok, err := p.prompt.Confirm(ctx, "Sign "+v.String(), body)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ringsig.ErrSigningDenied
	}

	if _, err := rand.Read(env.Nonce); err != nil {
		return "", err
	}
	hash, err := env.digest()
	if err != nil {
		return "", err
	}
	proof, err := signer.Sign(hash)
	if err != nil {
		return "", err
	}
	env.Proof = hexutil.Bytes(proof)

	p.lg.Debug("signed", "variant", v, "ring_size", len(ring))
	return env.encode()
}

// Verify needs neither an account nor an installed keystore.
func (p *Provider) Verify(_ context.Context, sig ringsig.Signature) (bool, error) {
	env, err := decodeEnvelope(sig)
	if err != nil {
		return false, err
	}
	return env.verify(), nil
}

// Link reports whether a and b are valid LSAG signatures sharing domain and
// key image.
func (p *Provider) Link(_ context.Context, a, b ringsig.Signature) (bool, error) {
	ea, err := decodeEnvelope(a)
	if err != nil {
		return false, err
	}
	eb, err := decodeEnvelope(b)
	if err != nil {
		return false, err
	}
	if ea.Variant != ringsig.VariantLSAG.String() || eb.Variant != ringsig.VariantLSAG.String() {
		return false, ringsig.ErrNotLinkable
	}
	if !ea.verify() || !eb.verify() {
		return false, nil
	}
	return ea.Domain == eb.Domain && bytes.Equal(ea.KeyImage, eb.KeyImage), nil
}

// PublicKey returns the compressed key behind addr.
func (p *Provider) PublicKey(ctx context.Context, addr ringsig.Address) (ringsig.PublicKey, error) {
	s, err := p.signer(ctx, addr)
	if err != nil {
		return "", err
	}
	return ringsig.PublicKey(s.PublicKey().String()), nil
}

func (p *Provider) requireInstalled(ctx context.Context, unavailable error) error {
	installed, err := p.store.IsInstalled(ctx)
	if err != nil {
		return err
	}
	if !installed {
		return unavailable
	}
	return nil
}

func (p *Provider) boundAccount(ctx context.Context) (*keystore.AccountDTO, error) {
	if err := p.requireInstalled(ctx, ringsig.ErrNotInstalled); err != nil {
		return nil, err
	}
	acc, err := p.store.Account(ctx)
	if errors.Is(err, keystore.ErrNotFound) {
		return nil, ringsig.ErrUnknownBinding
	}
	return acc, err
}

func (p *Provider) signer(ctx context.Context, addr ringsig.Address) (*sign.EthereumSigner, error) {
	acc, err := p.boundAccount(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := sign.ParseAddress(string(addr))
	if err != nil {
		return nil, ringsig.ErrKeyNotBound
	}
	key, err := p.store.Key(ctx, acc.ID, parsed.String())
	if errors.Is(err, keystore.ErrNotFound) {
		return nil, ringsig.ErrKeyNotBound
	} else if err != nil {
		return nil, err
	}
	return sign.NewEthereumSigner(key.PrivateKey)
}

func joinAddresses(addrs []ringsig.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}
