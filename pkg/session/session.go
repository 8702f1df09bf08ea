package session

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/alicesring/snapdemo/pkg/log"
	"github.com/alicesring/snapdemo/pkg/ringsig"
)

const (
	DefaultCallTimeout = 2 * time.Minute

	tracerName = "github.com/alicesring/snapdemo/pkg/session"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Entries carry the session ID.
func WithLogger(lg log.Logger) Option {
	return func(s *Session) { s.lg = lg }
}

// WithTracerProvider sets where per-call spans are created. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Session) { s.tracer = tp.Tracer(tracerName) }
}

// WithMetrics enables Prometheus metrics. Sessions may share m.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithCallTimeout bounds every provider call. Non-positive values are ignored.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Session is one run of the workflow against a provider. It is safe for
// concurrent use; independent operations may overlap once addresses are
// exported, while a second call of an operation already running fails with
// ringsig.ErrInFlight.
type Session struct {
	id       string
	provider ringsig.Provider
	lg       log.Logger
	tracer   trace.Tracer
	metrics  *Metrics
	timeout  time.Duration
	validate *validator.Validate

	mu       sync.Mutex
	inFlight map[string]bool
	status   ringsig.ProviderStatus
	// stage only moves forward through Idle..AddressesExported.
	stage     State
	binding   ringsig.Binding
	addresses []ringsig.Address
	// Recorded only while stage is AddressesExported.
	keyImages     []ringsig.KeyImage
	signatures    map[ringsig.Variant]ringsig.Signature
	verifications map[ringsig.Variant]Verification
}

// New starts a session in StateIdle against provider.
func New(provider ringsig.Provider, opts ...Option) *Session {
	s := &Session{
		id:            uuid.NewString(),
		provider:      provider,
		lg:            log.NewNoopLogger(),
		tracer:        otel.Tracer(tracerName),
		timeout:       DefaultCallTimeout,
		validate:      validator.New(),
		inFlight:      make(map[string]bool),
		signatures:    make(map[ringsig.Variant]ringsig.Signature),
		verifications: make(map[ringsig.Variant]Verification),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lg = s.lg.WithName("session").WithKV("session", s.id)
	s.metrics.sessionStarted()
	return s
}

// ID returns the random session ID.
func (s *Session) ID() string { return s.id }

// State derives the workflow position from the recorded results.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// ProviderStatus returns the last known provider availability.
func (s *Session) ProviderStatus() ringsig.ProviderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// PrimaryAddress returns the first exported address.
func (s *Session) PrimaryAddress() (ringsig.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.addresses) == 0 {
		return "", ringsig.PreconditionNotMet(ringsig.StageAddresses)
	}
	return s.addresses[0], nil
}

// Status returns a copy of everything the session has recorded.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		ID:            s.id,
		State:         s.stateLocked(),
		Provider:      s.status,
		Binding:       s.binding,
		Addresses:     slices.Clone(s.addresses),
		KeyImages:     slices.Clone(s.keyImages),
		Signatures:    maps.Clone(s.signatures),
		Verifications: maps.Clone(s.verifications),
	}
}

// Detect asks whether the provider is present. A positive answer marks it
// installed but does not advance the workflow; CheckProvider does.
func (s *Session) Detect(ctx context.Context) (bool, error) {
	detected, err := call(ctx, s, ringsig.OpDetect, s.provider.Detect)
	if err != nil {
		return false, fmt.Errorf("failed to detect provider: %w", err)
	}
	if detected {
		s.setStatus(ringsig.StatusInstalled)
	}
	return detected, nil
}

// CheckProvider detects the provider, installs it when missing and confirms
// the install with a second detection.
func (s *Session) CheckProvider(ctx context.Context) (ringsig.ProviderStatus, error) {
	if err := s.enter(ringsig.OpInstall, nil); err != nil {
		return s.ProviderStatus(), err
	}
	defer s.leave(ringsig.OpInstall)

	detected, err := call(ctx, s, ringsig.OpDetect, s.provider.Detect)
	if err != nil {
		return s.ProviderStatus(), fmt.Errorf("failed to detect provider: %w", err)
	}
	if !detected {
		if err := s.install(ctx); err != nil {
			return s.ProviderStatus(), fmt.Errorf("failed to install provider: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = ringsig.StatusInstalled
	s.advanceLocked(StateProviderChecked)
	return s.status, nil
}

func (s *Session) install(ctx context.Context) error {
	s.setStatus(ringsig.StatusInstalling)

	_, err := call(ctx, s, ringsig.OpInstall, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.provider.Install(ctx)
	})
	if err == nil {
		var detected bool
		detected, err = call(ctx, s, ringsig.OpDetect, s.provider.Detect)
		if err == nil && !detected {
			err = ringsig.ErrInstallUnavailable
		}
	}
	if err != nil {
		s.setStatus(ringsig.StatusNotDetected)
		return err
	}
	return nil
}

// ImportAccount binds an account once per session; later calls return the
// cached binding without contacting the provider.
func (s *Session) ImportAccount(ctx context.Context) (ringsig.Binding, error) {
	var cached ringsig.Binding
	err := s.enter(ringsig.OpImportAccount, func() error {
		if s.stage < StateProviderChecked {
			return ringsig.PreconditionNotMet(ringsig.StageProvider)
		}
		cached = s.binding
		return nil
	})
	if err != nil {
		return ringsig.Binding{}, err
	}
	defer s.leave(ringsig.OpImportAccount)
	if !cached.IsZero() {
		return cached, nil
	}

	b, err := call(ctx, s, ringsig.OpImportAccount, s.provider.ImportAccount)
	if err != nil {
		return ringsig.Binding{}, fmt.Errorf("failed to import account: %w", err)
	}
	if b.IsZero() {
		return ringsig.Binding{}, fmt.Errorf("failed to import account: %w: empty binding", ringsig.ErrProviderUnreachable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.binding = b
	s.advanceLocked(StateAccountBound)
	return b, nil
}

// ExportAddresses fetches the bound account's addresses. A failed fetch
// keeps the previously exported set.
func (s *Session) ExportAddresses(ctx context.Context) ([]ringsig.Address, error) {
	var b ringsig.Binding
	err := s.enter(ringsig.OpGetAddresses, func() error {
		if s.binding.IsZero() {
			return ringsig.PreconditionNotMet(ringsig.StageAccount)
		}
		b = s.binding
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer s.leave(ringsig.OpGetAddresses)

	addrs, err := call(ctx, s, ringsig.OpGetAddresses, func(ctx context.Context) ([]ringsig.Address, error) {
		return s.provider.GetAddresses(ctx, b)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export addresses: %w", err)
	}
	addrs = uniqueAddresses(addrs)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("failed to export addresses: %w", ringsig.ErrNoAddresses)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses = addrs
	s.advanceLocked(StateAddressesExported)
	return slices.Clone(addrs), nil
}

type keyImageRequest struct {
	Addresses []ringsig.Address `validate:"required,min=1,dive,required"`
	Domain    string            `validate:"required"`
}

// ExportKeyImages exports key images of exported addresses under domain.
func (s *Session) ExportKeyImages(ctx context.Context, addrs []ringsig.Address, domain string) ([]ringsig.KeyImage, error) {
	req := keyImageRequest{Addresses: slices.Clone(addrs), Domain: domain}
	err := s.enter(ringsig.OpExportKeyImages, func() error {
		if s.stage < StateAddressesExported {
			return ringsig.PreconditionNotMet(ringsig.StageAddresses)
		}
		if err := s.validate.Struct(req); err != nil {
			return invalidRequest(err)
		}
		return s.checkExportedLocked(req.Addresses...)
	})
	if err != nil {
		return nil, err
	}
	defer s.leave(ringsig.OpExportKeyImages)

	images, err := call(ctx, s, ringsig.OpExportKeyImages, func(ctx context.Context) ([]ringsig.KeyImage, error) {
		return s.provider.ExportKeyImages(ctx, req.Addresses, req.Domain)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export key images: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("failed to export key images: %w", ringsig.ErrNoKeyImages)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.recordLocked(func() { s.keyImages = images }); err != nil {
		return nil, err
	}
	return slices.Clone(images), nil
}

// SignRequest describes a signature. Signer defaults to the primary address;
// Domain is required for LSAG and ignored for SAG.
type SignRequest struct {
	Variant ringsig.Variant `validate:"oneof=1 2"`
	Ring    ringsig.Ring    `validate:"required,min=1,dive,required"`
	Message []byte
	Signer  ringsig.Address
	Domain  string
}

// SignSAG signs message over ring as the primary address.
func (s *Session) SignSAG(ctx context.Context, ring ringsig.Ring, message []byte) (ringsig.Signature, error) {
	return s.Sign(ctx, SignRequest{Variant: ringsig.VariantSAG, Ring: ring, Message: message})
}

// SignLSAG signs message over ring as the primary address, linkable
// under domain.
func (s *Session) SignLSAG(ctx context.Context, ring ringsig.Ring, message []byte, domain string) (ringsig.Signature, error) {
	return s.Sign(ctx, SignRequest{Variant: ringsig.VariantLSAG, Ring: ring, Message: message, Domain: domain})
}

// Sign asks the provider for a signature and records it as the session's
// signature of that variant.
func (s *Session) Sign(ctx context.Context, req SignRequest) (ringsig.Signature, error) {
	req.Ring = req.Ring.Clone()
	req.Message = slices.Clone(req.Message)

	op := ringsig.OpSignSAG
	if req.Variant == ringsig.VariantLSAG {
		op = ringsig.OpSignLSAG
	}

	err := s.enter(op, func() error {
		if s.stage < StateAddressesExported {
			return ringsig.PreconditionNotMet(ringsig.StageAddresses)
		}
		if err := s.validate.Struct(req); err != nil {
			return invalidRequest(err)
		}
		if req.Variant == ringsig.VariantLSAG {
			if err := s.validate.Var(req.Domain, "required"); err != nil {
				return invalidRequest(fmt.Errorf("domain: %w", err))
			}
		}
		if req.Signer == "" {
			req.Signer = s.addresses[0]
		}
		return s.checkExportedLocked(req.Signer)
	})
	if err != nil {
		return "", err
	}
	defer s.leave(op)

	sig, err := call(ctx, s, op, func(ctx context.Context) (ringsig.Signature, error) {
		if req.Variant == ringsig.VariantLSAG {
			return s.provider.SignLSAG(ctx, req.Ring, req.Message, req.Signer, req.Domain)
		}
		return s.provider.SignSAG(ctx, req.Ring, req.Message, req.Signer)
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", req.Variant, err)
	}
	if sig == "" {
		return "", fmt.Errorf("failed to sign %s: %w: empty signature", req.Variant, ringsig.ErrMalformedSignature)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.recordLocked(func() { s.signatures[req.Variant] = sig }); err != nil {
		return "", err
	}
	return sig, nil
}

// Verify verifies the session's signature of variant and records the result.
func (s *Session) Verify(ctx context.Context, variant ringsig.Variant) (bool, error) {
	var sig ringsig.Signature
	err := s.enter(ringsig.OpVerify, func() error {
		sig = s.signatures[variant]
		if sig == "" {
			return ringsig.PreconditionNotMet(ringsig.StageSignature)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	defer s.leave(ringsig.OpVerify)

	valid, err := call(ctx, s, ringsig.OpVerify, func(ctx context.Context) (bool, error) {
		return s.provider.Verify(ctx, sig)
	})
	if err != nil {
		return false, fmt.Errorf("failed to verify %s signature: %w", variant, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.recordLocked(func() {
		s.verifications[variant] = Verification{Signature: sig, Valid: valid}
	})
	if err != nil {
		return false, err
	}
	return valid, nil
}

// VerifyArtifact verifies any artifact without recording the result.
func (s *Session) VerifyArtifact(ctx context.Context, sig ringsig.Signature) (bool, error) {
	err := s.enter(ringsig.OpVerify, func() error {
		if s.stage < StateProviderChecked {
			return ringsig.PreconditionNotMet(ringsig.StageProvider)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	defer s.leave(ringsig.OpVerify)

	valid, err := call(ctx, s, ringsig.OpVerify, func(ctx context.Context) (bool, error) {
		return s.provider.Verify(ctx, sig)
	})
	if err != nil {
		return false, fmt.Errorf("failed to verify signature: %w", err)
	}
	return valid, nil
}

// Link asks the provider whether two LSAG signatures share a signer and
// domain. Providers without ringsig.Linker yield ringsig.ErrUnsupported.
func (s *Session) Link(ctx context.Context, a, b ringsig.Signature) (bool, error) {
	linker, ok := s.provider.(ringsig.Linker)
	if !ok {
		return false, ringsig.ErrUnsupported
	}
	if s.State() < StateProviderChecked {
		return false, ringsig.PreconditionNotMet(ringsig.StageProvider)
	}

	linked, err := call(ctx, s, ringsig.OpLink, func(ctx context.Context) (bool, error) {
		return linker.Link(ctx, a, b)
	})
	if err != nil {
		return false, fmt.Errorf("failed to link signatures: %w", err)
	}
	return linked, nil
}

// PublicKey resolves the ring key behind an exported address. Providers
// without ringsig.KeyResolver yield ringsig.ErrUnsupported.
func (s *Session) PublicKey(ctx context.Context, addr ringsig.Address) (ringsig.PublicKey, error) {
	resolver, ok := s.provider.(ringsig.KeyResolver)
	if !ok {
		return "", ringsig.ErrUnsupported
	}

	s.mu.Lock()
	err := s.checkExportedLocked(addr)
	if s.stage < StateAddressesExported {
		err = ringsig.PreconditionNotMet(ringsig.StageAddresses)
	}
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	pk, err := call(ctx, s, ringsig.OpResolveKey, func(ctx context.Context) (ringsig.PublicKey, error) {
		return resolver.PublicKey(ctx, addr)
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve public key: %w", err)
	}
	return pk, nil
}

// enter runs check and claims op's in-flight slot under one lock.
func (s *Session) enter(op string, check func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if check != nil {
		if err := check(); err != nil {
			return err
		}
	}
	if s.inFlight[op] {
		return ringsig.ErrInFlight
	}
	s.inFlight[op] = true
	s.metrics.inFlight(op, 1)
	return nil
}

func (s *Session) leave(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, op)
	s.metrics.inFlight(op, -1)
}

func (s *Session) setStatus(status ringsig.ProviderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == ringsig.StatusInstalled {
		return
	}
	s.status = status
}

func (s *Session) stateLocked() State {
	switch {
	case len(s.verifications) > 0:
		return StateVerified
	case len(s.signatures) > 0:
		return StateSigned
	case len(s.keyImages) > 0:
		return StateKeyImagesExported
	default:
		return s.stage
	}
}

func (s *Session) advanceLocked(to State) {
	if s.stage >= to {
		return
	}
	from := s.stateLocked()
	s.stage = to
	s.transitionedLocked(from)
}

// recordLocked stores a post-address result.
func (s *Session) recordLocked(store func()) error {
	if s.stage != StateAddressesExported {
		return ringsig.PreconditionNotMet(ringsig.StageAddresses)
	}
	from := s.stateLocked()
	store()
	s.transitionedLocked(from)
	return nil
}

func (s *Session) transitionedLocked(from State) {
	to := s.stateLocked()
	if from == to {
		return
	}
	s.lg.Info("session state changed", "from", from.String(), "to", to.String())
	s.metrics.setState(to)
}

func (s *Session) checkExportedLocked(addrs ...ringsig.Address) error {
	for _, a := range addrs {
		if !slices.Contains(s.addresses, a) {
			return fmt.Errorf("%w: %s", ringsig.ErrAddressNotExported, a)
		}
	}
	return nil
}

func invalidRequest(err error) error {
	return fmt.Errorf("%w: %v", ringsig.ErrInvalidRequest, err)
}

func uniqueAddresses(addrs []ringsig.Address) []ringsig.Address {
	out := make([]ringsig.Address, 0, len(addrs))
	for _, a := range addrs {
		if a != "" && !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}
