package anneal

import "github.com/copyleftdev/TRVLR/internal/tsp"

// Schedule controls how the temperature falls between iterations.
type Schedule interface {
	// Cool returns the temperature that follows t.
	Cool(t float64) float64
	// Validate rejects parameters outside their documented domains.
	Validate() error
}

// Geometric multiplies the temperature by Gamma each iteration.
type Geometric struct {
	Gamma float64
}

// Cool implements Schedule.
func (g Geometric) Cool(t float64) float64 { return t * g.Gamma }

// Validate implements Schedule.
func (g Geometric) Validate() error {
	if g.Gamma <= 0 || g.Gamma >= 1 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "geometric cooling needs gamma in (0,1), got %v", g.Gamma).
			WithOperation("anneal.Geometric.Validate")
	}
	return nil
}

// Linear subtracts Beta from the temperature each iteration.
type Linear struct {
	Beta float64
}

// Cool implements Schedule.
func (l Linear) Cool(t float64) float64 { return t - l.Beta }

// Validate implements Schedule.
func (l Linear) Validate() error {
	if l.Beta <= 0 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "linear cooling needs beta > 0, got %v", l.Beta).
			WithOperation("anneal.Linear.Validate")
	}
	return nil
}
