// Package retry envuelve cenkalti/backoff con la política de reintentos de
// la aplicación: backoff exponencial con tope de intentos, cancelable por
// contexto.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Do ejecuta op con backoff exponencial hasta maxRetries reintentos. La
// operación se aborta en cuanto el contexto se cancela.
func Do(ctx context.Context, maxRetries uint64, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))
}

// Permanent marca un error como no-reintentable (fallos de validación,
// permisos, entidades inexistentes).
func Permanent(err error) error {
	return backoff.Permanent(err)
}
