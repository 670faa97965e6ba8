package generator

import "github.com/faultline/internal/pattern"

// statusWeight pairs an HTTP status code with its relative weight.
// Weights are relative, not normalized probabilities.
type statusWeight struct {
	code   int
	weight int
}

// normalWeights is the steady-state status distribution. Slow responses
// share it: only their latency differs from normal traffic.
var normalWeights = []statusWeight{
	{200, 30}, {201, 10}, {202, 10},
	{400, 5}, {401, 3}, {403, 2}, {404, 2},
	{500, 3}, {503, 1},
}

var statusWeights = map[pattern.Pattern][]statusWeight{
	pattern.Normal: normalWeights,
	pattern.Spike: {
		{200, 25}, {201, 8}, {202, 8},
		{400, 8}, {401, 5}, {403, 3}, {404, 3},
		{500, 5}, {503, 2},
	},
	pattern.Outage: {
		{500, 1}, {503, 2}, {504, 1},
	},
	pattern.SlowResponse: normalWeights,
	pattern.HighErrorRate: {
		{200, 10}, {201, 3}, {202, 3},
		{400, 15}, {401, 10}, {403, 8}, {404, 8},
		{500, 15}, {503, 10},
	},
}

// latencyBounds is the inclusive latency range in milliseconds per pattern.
var latencyBounds = map[pattern.Pattern][2]int{
	pattern.Normal:        {50, 500},
	pattern.Spike:         {100, 800},
	pattern.Outage:        {5000, 10000},
	pattern.SlowResponse:  {1500, 3000},
	pattern.HighErrorRate: {50, 500},
}

// StatusCatalog returns the set of status codes pattern p can produce.
func StatusCatalog(p pattern.Pattern) []int {
	weights := statusWeights[p]
	codes := make([]int, 0, len(weights))
	for _, w := range weights {
		codes = append(codes, w.code)
	}
	return codes
}

// LatencyBounds returns the inclusive latency range in milliseconds for
// pattern p.
func LatencyBounds(p pattern.Pattern) (min, max int) {
	b := latencyBounds[p]
	return b[0], b[1]
}
