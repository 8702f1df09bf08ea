package session_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/alicesring/snapdemo/pkg/ringsig"
	"github.com/alicesring/snapdemo/pkg/session"
)

// ExampleNew walks a session from provider check to a verified SAG signature.
func ExampleNew() {
	ctx := context.Background()
	provider := ringsig.NewMockProvider("0xA")
	s := session.New(provider, session.WithCallTimeout(time.Second))

	if _, err := s.CheckProvider(ctx); err != nil {
		log.Fatal(err)
	}
	if _, err := s.ImportAccount(ctx); err != nil {
		log.Fatal(err)
	}
	if _, err := s.ExportAddresses(ctx); err != nil {
		log.Fatal(err)
	}

	ring := ringsig.Ring{"k1", "k2", "k3"}
	if _, err := s.SignSAG(ctx, ring, []byte("Hello Snap!")); err != nil {
		log.Fatal(err)
	}
	valid, err := s.Verify(ctx, ringsig.VariantSAG)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("State:", s.State())
	fmt.Println("Valid:", valid)
	// Output:
	// State: Verified
	// Valid: true
}

// ExampleSession_SignLSAG shows the precondition error returned before any
// address has been exported.
func ExampleSession_SignLSAG() {
	s := session.New(ringsig.NewMockProvider("0xA"))

	_, err := s.SignLSAG(context.Background(), ringsig.Ring{"k1"}, []byte("Hello Snap!"), "demo-snap-signature")
	fmt.Println(errors.Is(err, ringsig.ErrPreconditionNotMet))
	fmt.Println(ringsig.UserMessage(err))
	// Output:
	// true
	// Export addresses first.
}
