package event

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Normalize validates a payload and returns it in stored form. Scroll samples
// outside [0,1] are clamped rather than rejected.
func Normalize(p Payload) (Payload, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidInput)
	}
	if v, ok := p.(EmailScrolled); ok {
		v.ScrollPosition = clamp(v.ScrollPosition)
		return v, nil
	}
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, p.Type(), err)
	}
	return p, nil
}

func clamp(pos float64) float64 {
	switch {
	case math.IsNaN(pos), pos < 0:
		return 0
	case pos > 1:
		return 1
	}
	return pos
}
