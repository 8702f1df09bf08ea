package session

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/alicesring/snapdemo/pkg/ringsig"
)

// Any order of operations leaves the session in a consistent state.
func TestSession_AnyOrderStaysConsistent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		var addrs []ringsig.Address
		if rapid.Bool().Draw(t, "hasAddresses") {
			addrs = []ringsig.Address{addrA, addrB}
		}
		p := ringsig.NewMockProvider(addrs...)
		p.Installed = rapid.Bool().Draw(t, "installed")
		s := New(p)

		apply := func(name string) error {
			var err error
			switch name {
			case "check":
				_, err = s.CheckProvider(ctx)
			case "import":
				_, err = s.ImportAccount(ctx)
			case "addresses":
				_, err = s.ExportAddresses(ctx)
			case "keyImages":
				_, err = s.ExportKeyImages(ctx, []ringsig.Address{addrA}, demoDomain)
			case "sag":
				_, err = s.SignSAG(ctx, demoRing, []byte(demoMessage))
			case "lsag":
				_, err = s.SignLSAG(ctx, demoRing, []byte(demoMessage), demoDomain)
			case "verifySAG":
				_, err = s.Verify(ctx, ringsig.VariantSAG)
			case "verifyLSAG":
				_, err = s.Verify(ctx, ringsig.VariantLSAG)
			}
			return err
		}
		names := []string{"check", "import", "addresses", "keyImages", "sag", "lsag", "verifySAG", "verifyLSAG"}

		steps := rapid.SliceOfN(rapid.SampledFrom(names), 1, 20).Draw(t, "steps")
		for _, name := range steps {
			before := s.State()
			err := apply(name)
			st := s.Status()

			if st.State < before {
				t.Fatalf("%s moved state back from %s to %s", name, before, st.State)
			}
			if errors.Is(err, ringsig.ErrPreconditionNotMet) && st.State != before {
				t.Fatalf("%s failed a precondition but changed state", name)
			}
			if st.State >= StateKeyImagesExported && len(st.Addresses) == 0 {
				t.Fatalf("state %s without exported addresses", st.State)
			}
			if st.State >= StateAccountBound && st.Binding.IsZero() {
				t.Fatalf("state %s without a binding", st.State)
			}
			if st.State >= StateProviderChecked && st.Provider != ringsig.StatusInstalled {
				t.Fatalf("state %s with provider %s", st.State, st.Provider)
			}
			if len(st.Verifications) > 0 && len(st.Signatures) == 0 {
				t.Fatal("verification without a signature")
			}
		}
	})
}
