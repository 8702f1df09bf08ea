package ringsig

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	t.Run("Matches by code through wrapping", func(t *testing.T) {
		err := fmt.Errorf("export addresses: %w", ErrNoAddresses)
		assert.ErrorIs(t, err, ErrNoAddresses)
		assert.NotErrorIs(t, err, ErrNoKeyImages)
	})

	t.Run("Precondition stage", func(t *testing.T) {
		err := fmt.Errorf("sign: %w", PreconditionNotMet(StageAddresses))

		assert.ErrorIs(t, err, ErrPreconditionNotMet)
		assert.ErrorIs(t, err, PreconditionNotMet(StageAddresses))
		assert.NotErrorIs(t, err, PreconditionNotMet(StageAccount))
		assert.Equal(t, StageAddresses, StageOf(err))
		assert.Equal(t, "sign: precondition not met: addresses", err.Error())
	})

	t.Run("PreconditionNotMet does not alias the sentinel", func(t *testing.T) {
		_ = PreconditionNotMet(StageProvider)
		assert.Empty(t, ErrPreconditionNotMet.Stage)
	})

	t.Run("Plain errors never match", func(t *testing.T) {
		assert.False(t, errors.Is(errors.New("no_addresses"), ErrNoAddresses))
	})
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
	}{
		{ErrInstallUnavailable, KindCapabilityUnavailable},
		{ErrImportUnavailable, KindCapabilityUnavailable},
		{ErrNotInstalled, KindCapabilityUnavailable},
		{ErrInstallRejected, KindUserDenied},
		{ErrImportDenied, KindUserDenied},
		{ErrSigningDenied, KindUserDenied},
		{ErrDismissed, KindUserDenied},
		{PreconditionNotMet(StageAccount), KindPreconditionNotMet},
		{ErrNoAddresses, KindEmptyResult},
		{ErrNoKeyImages, KindEmptyResult},
		{ErrProviderUnreachable, KindProviderUnreachable},
		{ErrMalformedSignature, KindMalformedSignature},
		{ErrKeyNotBound, KindRejected},
		{ErrSignerNotInRing, KindRejected},
		{ErrInFlight, KindInvalidRequest},
		{fmt.Errorf("wrapped: %w", ErrNoKeyImages), KindEmptyResult},
		{errors.New("boom"), KindUnknown},
		{nil, KindUnknown},
	}

	for _, test := range tests {
		t.Run(fmt.Sprint(test.err), func(t *testing.T) {
			assert.Equal(t, test.kind, KindOf(test.err))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "EmptyResult", KindEmptyResult.String())
	assert.Equal(t, "PreconditionNotMet", KindPreconditionNotMet.String())
	assert.Equal(t, "Unknown", Kind(99).String())
}
