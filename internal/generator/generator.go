// Package generator synthesizes HTTP-request telemetry samples whose
// statistical shape follows the active traffic pattern.
package generator

import (
	"math/rand"
	"time"

	"github.com/faultline/internal/pattern"
	"github.com/google/uuid"
)

var httpMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

var apiEndpoints = []string{
	"/login",
	"/api/v1/users",
	"/api/v1/products",
	"/logout",
	"/health",
}

// Generator produces telemetry samples. It is pure given its random
// source and never fails.
type Generator struct {
	rng *rand.Rand
}

// New creates a generator backed by the given random source. A nil rng
// gets a time-seeded one.
func New(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate assembles one sample for pattern p at timestamp now. Method
// and endpoint are uniform and independent of the pattern; status and
// latency follow the pattern's distribution tables.
func (g *Generator) Generate(p pattern.Pattern, now time.Time) Sample {
	status, latency := g.statusAndLatency(p)

	return Sample{
		Timestamp: now.UTC(),
		RequestID: uuid.NewString(),
		Method:    httpMethods[g.rng.Intn(len(httpMethods))],
		Endpoint:  apiEndpoints[g.rng.Intn(len(apiEndpoints))],
		Status:    status,
		LatencyMS: latency,
		Pattern:   p,
	}
}

// statusAndLatency draws a weighted status code and a uniform latency
// from pattern p's tables.
func (g *Generator) statusAndLatency(p pattern.Pattern) (int, int) {
	weights, ok := statusWeights[p]
	if !ok {
		weights = normalWeights
		p = pattern.Normal
	}

	total := 0
	for _, w := range weights {
		total += w.weight
	}

	r := g.rng.Intn(total)
	cumulative := 0
	status := weights[0].code
	for _, w := range weights {
		cumulative += w.weight
		if r < cumulative {
			status = w.code
			break
		}
	}

	bounds := latencyBounds[p]
	latency := bounds[0] + g.rng.Intn(bounds[1]-bounds[0]+1)

	return status, latency
}
