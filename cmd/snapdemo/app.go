package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/alicesring/snapdemo/internal/devsnap"
	"github.com/alicesring/snapdemo/internal/keystore"
	"github.com/alicesring/snapdemo/pkg/log"
	"github.com/alicesring/snapdemo/pkg/ringsig"
	"github.com/alicesring/snapdemo/pkg/session"
)

// App wires one session to the development provider and renders results.
type App struct {
	cfg      *Config
	lg       log.Logger
	out      io.Writer
	store    *keystore.Store
	provider *devsnap.Provider
	session  *session.Session
	registry *prometheus.Registry
	tp       *sdktrace.TracerProvider

	metricsServer *http.Server
}

func NewApp(cfg *Config, prompt devsnap.Prompter, lg log.Logger, out io.Writer) (*App, error) {
	store, err := keystore.Open(cfg.Keystore, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}

	registry := prometheus.NewRegistry()
	tp := sdktrace.NewTracerProvider()
	provider := devsnap.NewProvider(store, prompt, lg)

	app := &App{
		cfg:      cfg,
		lg:       lg,
		out:      out,
		store:    store,
		provider: provider,
		registry: registry,
		tp:       tp,
		session: session.New(provider,
			session.WithLogger(lg),
			session.WithTracerProvider(tp),
			session.WithMetrics(session.NewMetricsWithRegistry(registry)),
			session.WithCallTimeout(cfg.CallTimeout),
		),
	}
	app.serveMetrics()
	return app, nil
}

func (a *App) serveMetrics() {
	if a.cfg.MetricsAddr == "" {
		return
	}

	metricsEndpoint := "/metrics"
	metricsMux := http.NewServeMux()
	metricsMux.Handle(metricsEndpoint, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.metricsServer = &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.lg.Info("Prometheus metrics available", "listenAddr", a.cfg.MetricsAddr, "endpoint", metricsEndpoint)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.lg.Error("metrics server failure", "error", err)
		}
	}()
}

func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.lg.Error("failed to shut down metrics server", "error", err)
		}
	}
	if err := a.tp.Shutdown(ctx); err != nil {
		a.lg.Error("failed to shut down tracer provider", "error", err)
	}
	return a.store.Close()
}

// CheckProvider reports the install flow the way the demo page does.
func (a *App) CheckProvider(ctx context.Context) error {
	detected, err := a.session.Detect(ctx)
	if err != nil {
		return err
	}
	if !detected {
		fmt.Fprintln(a.out, "Installing snap...")
	}
	if _, err := a.session.CheckProvider(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Snap is installed")
	return nil
}

func (a *App) ImportAccount(ctx context.Context) error {
	b, err := a.session.ImportAccount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account bound: %s\n", b.ID)
	return nil
}

func (a *App) ExportAddresses(ctx context.Context) error {
	addrs, err := a.session.ExportAddresses(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, formatAddresses(addrs))
	return nil
}

// ExportKeyImages exports the key image of the primary address. An empty
// domain falls back to the configured one.
func (a *App) ExportKeyImages(ctx context.Context, domain string) error {
	if domain == "" {
		domain = a.cfg.Domain
	}
	primary, err := a.session.PrimaryAddress()
	if err != nil {
		return err
	}
	images, err := a.session.ExportKeyImages(ctx, []ringsig.Address{primary}, domain)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, formatKeyImages(images))
	return nil
}

// Sign signs message, or the configured one when empty, over the demo ring.
func (a *App) Sign(ctx context.Context, variant ringsig.Variant, message string) error {
	if message == "" {
		message = a.cfg.Message
	}
	ring, err := a.Ring(ctx)
	if err != nil {
		return err
	}

	req := session.SignRequest{Variant: variant, Ring: ring, Message: []byte(message)}
	if variant == ringsig.VariantLSAG {
		req.Domain = a.cfg.Domain
	}
	sig, err := a.session.Sign(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s signature: %s\n", variant, sig)
	return nil
}

func (a *App) Verify(ctx context.Context, variant ringsig.Variant) error {
	valid, err := a.session.Verify(ctx, variant)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, verificationMessage(variant, valid))
	return nil
}

// VerifyArtifact checks an artifact produced elsewhere. It needs the provider
// to be checked but no account.
func (a *App) VerifyArtifact(ctx context.Context, artifact string) (bool, error) {
	if a.session.State() < session.StateProviderChecked {
		if _, err := a.session.CheckProvider(ctx); err != nil {
			return false, err
		}
	}
	valid, err := a.session.VerifyArtifact(ctx, ringsig.Signature(strings.TrimSpace(artifact)))
	if err != nil {
		return false, err
	}
	if valid {
		fmt.Fprintln(a.out, "Signature is valid")
	} else {
		fmt.Fprintln(a.out, "Signature is invalid")
	}
	return valid, nil
}

// Link compares the session's LSAG signature with another artifact.
func (a *App) Link(ctx context.Context, other string) error {
	own := a.session.Status().Signatures[ringsig.VariantLSAG]
	if own == "" {
		return ringsig.PreconditionNotMet(ringsig.StageSignature)
	}
	linked, err := a.session.Link(ctx, own, ringsig.Signature(strings.TrimSpace(other)))
	if err != nil {
		return err
	}
	if linked {
		fmt.Fprintln(a.out, "Signatures are linked: same signer and domain")
	} else {
		fmt.Fprintln(a.out, "Signatures are not linked")
	}
	return nil
}

// AddAddress stores another key under the bound account. Export addresses
// again to pick it up.
func (a *App) AddAddress(ctx context.Context, privateKeyHex string) error {
	b := a.session.Status().Binding
	if b.IsZero() {
		return ringsig.PreconditionNotMet(ringsig.StageAccount)
	}
	addr, err := a.provider.AddKey(ctx, b, privateKeyHex)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Address added: %s\n", addr)
	return nil
}

// Ring returns the configured ring with the signer's key appended when it is
// not already a member.
func (a *App) Ring(ctx context.Context) (ringsig.Ring, error) {
	ring := make(ringsig.Ring, 0, len(a.cfg.Ring)+1)
	for _, key := range a.cfg.Ring {
		ring = append(ring, ringsig.PublicKey(strings.ToLower(strings.TrimPrefix(key, "0x"))))
	}

	signer, err := a.session.PrimaryAddress()
	if err != nil {
		return nil, err
	}
	pk, err := a.session.PublicKey(ctx, signer)
	if errors.Is(err, ringsig.ErrUnsupported) {
		return ring, nil
	}
	if err != nil {
		return nil, err
	}
	if !ring.Contains(pk) {
		ring = append(ring, pk)
	}
	return ring, nil
}

// RunScenario walks the whole demo: check, import, addresses, key images,
// SAG and LSAG signatures and their verification.
func (a *App) RunScenario(ctx context.Context) error {
	steps := []func(context.Context) error{
		a.CheckProvider,
		a.ImportAccount,
		a.ExportAddresses,
		func(ctx context.Context) error { return a.ExportKeyImages(ctx, "") },
		func(ctx context.Context) error { return a.Sign(ctx, ringsig.VariantSAG, "") },
		func(ctx context.Context) error { return a.Sign(ctx, ringsig.VariantLSAG, "") },
		func(ctx context.Context) error { return a.Verify(ctx, ringsig.VariantSAG) },
		func(ctx context.Context) error { return a.Verify(ctx, ringsig.VariantLSAG) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	renderStatus(a.out, a.session.Status())
	return nil
}
