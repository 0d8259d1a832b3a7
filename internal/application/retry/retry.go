// Package retry reintenta operaciones transaccionales que fallan por
// contención sobre el mismo destino. Solo se reintentan errores de
// concurrencia; los errores de validación y de estado se devuelven tal cual.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/comandera/backoffice-api/internal/domain"
)

const (
	// DefaultAttempts intentos totales antes de rendirse y devolver
	// domain.ErrConcurrentModification al caller.
	DefaultAttempts = 3
	baseBackoff     = 25 * time.Millisecond
)

// Do ejecuta fn hasta attempts veces con backoff lineal entre intentos.
// Respeta la cancelación del contexto durante la espera.
func Do(ctx context.Context, attempts int, fn func() error) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(baseBackoff * time.Duration(i+1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
