package usecase

import "time"

const (
	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// ledgerScanLimit bounds paged reads used for in-process aggregation.
	ledgerScanLimit = 1000
)
