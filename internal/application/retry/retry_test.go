package retry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/comandera/backoffice-api/internal/application/retry"
	"github.com/comandera/backoffice-api/internal/domain"
)

func TestDo_ExitoAlPrimerIntento(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), 3, func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ReintentaSoloContencion(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), 3, func() error {
		calls++
		if calls < 3 {
			return domain.ErrConcurrentModification
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ErrorNoRetriableCortaDeInmediato(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := retry.Do(context.Background(), 3, func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDo_AgotaIntentos(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), 3, func() error {
		calls++
		return domain.ErrConcurrentModification
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Equal(t, 3, calls)
}

func TestDo_RespetaCancelacion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry.Do(ctx, 3, func() error {
		return domain.ErrConcurrentModification
	})
	assert.ErrorIs(t, err, context.Canceled)
}
