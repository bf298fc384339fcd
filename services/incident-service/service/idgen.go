package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

const (
	idPrefix = "RMG"
	idMin    = 10000
	idMax    = 99999
)

type IncidentIDChecker interface {
	ExistsByIncidentID(ctx context.Context, incidentID string) (bool, error)
}

// IDGenerator draws RMG<5 digits><year> identifiers until it finds one the
// store does not know yet.
type IDGenerator struct {
	store IncidentIDChecker
	intN  func(n int) int
	now   func() time.Time
}

func NewIDGenerator(store IncidentIDChecker) *IDGenerator {
	return &IDGenerator{store: store, intN: rand.Intn, now: time.Now}
}

// WithSource replaces the random source and clock.
func (g *IDGenerator) WithSource(intN func(n int) int, now func() time.Time) *IDGenerator {
	g.intN = intN
	g.now = now
	return g
}

func (g *IDGenerator) Generate(ctx context.Context) (string, error) {
	year := g.now().Year()
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := fmt.Sprintf("%s%d%d", idPrefix, idMin+g.intN(idMax-idMin+1), year)
		taken, err := g.store.ExistsByIncidentID(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check incident id: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
}
