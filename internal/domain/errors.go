package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// El servicio de ledger es la única capa que traduce errores de almacenamiento
// a esta taxonomía; por encima de él solo circulan estos sentinelas.
var (
	// Validación: rechazados antes de cualquier escritura, nunca se reintentan.
	ErrInvalidMagnitude = errors.New("magnitud inválida: debe ser un decimal positivo")
	ErrUnknownCategory  = errors.New("categoría de movimiento no permitida para este destino")
	ErrTargetNotFound   = errors.New("destino no encontrado")
	ErrTenantMismatch   = errors.New("el destino no pertenece al tenant del actor")

	// Estado: violaciones de regla de negocio, nunca se reintentan.
	ErrSessionClosed      = errors.New("la sesión de caja está cerrada y no admite más movimientos")
	ErrSessionAlreadyOpen = errors.New("la tienda ya tiene una sesión de caja abierta")
	ErrInsufficientStock  = errors.New("stock insuficiente")

	// Concurrencia: transitorios, seguros de reintentar con backoff.
	ErrConcurrentModification = errors.New("modificación concurrente sobre el mismo destino")

	// Consistencia: no se muestran al usuario; se registran para investigación.
	ErrBalanceMismatch = errors.New("el balance cacheado no coincide con la suma de movimientos")
)
