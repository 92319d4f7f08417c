// Package codegen produces short numeric access codes whose length grows with
// the population they have to cover.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrExhausted is returned when no free code was found within the attempt budget.
var ErrExhausted = errors.New("no free code found")

// ExistsFunc reports whether a code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Length returns the digit count for a population of the given size. The code
// space is always at least twice the population, so a random draw hits a free
// code with probability >= 1/2.
func Length(population int) int {
	if population < 0 {
		population = 0
	}
	n := int(math.Ceil(math.Log10(float64(population+1) * 2)))
	return max(2, n)
}

// Generator draws codes by rejection sampling.
type Generator struct {
	intn        func(n int) int
	maxAttempts int
}

// New creates a generator backed by math/rand/v2.
func New() *Generator {
	return NewWithSource(rand.IntN)
}

// NewWithSource creates a generator with a custom random source, for tests.
func NewWithSource(intn func(n int) int) *Generator {
	return &Generator{intn: intn, maxAttempts: 1000}
}

// Generate returns one code that exists reports as free.
func (g *Generator) Generate(ctx context.Context, population int, exists ExistsFunc) (string, error) {
	codes, err := g.GenerateBatch(ctx, population, 1, exists)
	if err != nil {
		return "", err
	}
	return codes[0], nil
}

// GenerateBatch returns n distinct free codes sized for population+n entries.
func (g *Generator) GenerateBatch(ctx context.Context, population, n int, exists ExistsFunc) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	length := Length(population + n)
	upper := int(math.Pow10(length))
	taken := make(map[string]struct{}, n)
	codes := make([]string, 0, n)

	for attempts := 0; len(codes) < n; attempts++ {
		if attempts >= g.maxAttempts*n {
			return nil, ErrExhausted
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		code := fmt.Sprintf("%0*d", length, g.intn(upper))
		if _, dup := taken[code]; dup {
			continue
		}
		used, err := exists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("checking code: %w", err)
		}
		if used {
			continue
		}
		taken[code] = struct{}{}
		codes = append(codes, code)
	}

	return codes, nil
}
