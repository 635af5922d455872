package calibration

import (
	"errors"
	"sync/atomic"

	"github.com/Abdr007/prism-ai-sub001/internal/domain/models"
)

// ErrCorruptParams marks a parameter set with non-finite slope or intercept.
var ErrCorruptParams = errors.New("calibration: corrupt parameter set")

// Store publishes calibration parameters to concurrent readers. The whole
// value is swapped atomically: a reader either sees the previous complete set
// or the new complete set, never a mix. Seeded with DefaultParams so reads
// are valid before any fit has run.
type Store struct {
	current atomic.Pointer[models.CalibrationParams]
}

// NewStore returns a store seeded with the default fallback parameters.
func NewStore() *Store {
	s := &Store{}
	def := DefaultParams()
	s.current.Store(&def)
	return s
}

// Current returns the active parameter set. Never nil. Callers must treat the
// result as read-only.
func (s *Store) Current() *models.CalibrationParams {
	return s.current.Load()
}

// Publish swaps in a new parameter set. A corrupt set is rejected and the
// previous set stays authoritative.
func (s *Store) Publish(p *models.CalibrationParams) error {
	if !p.Valid() {
		return ErrCorruptParams
	}
	s.current.Store(p)
	return nil
}

// Reset reverts to the default fallback, e.g. after a corrupt load.
func (s *Store) Reset() {
	def := DefaultParams()
	s.current.Store(&def)
}
