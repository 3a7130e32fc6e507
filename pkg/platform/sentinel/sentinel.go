package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Sources, caches and other
// infrastructure layers return these (optionally wrapped) so the pricing
// service can translate them into domain errors.
//
//   - ErrNotFound: key or document does not exist
//   - ErrUnavailable: backing store is not reachable
//   - ErrMalformed: stored document cannot be decoded into the expected shape
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrMalformed   = errors.New("malformed document")
)
