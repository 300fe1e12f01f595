// Package report computes risk scores and renders Markdown exposure
// reports from scanner output.
package report

// riskWeights is the per-finding contribution by risk level.
var riskWeights = map[string]int{
	"critical": 25,
	"high":     10,
	"medium":   5,
	"low":      2,
}

// ComputeRiskScore sums per-finding weights and clamps to 100. Unknown
// levels count as medium.
func ComputeRiskScore(levels []string) int {
	score := 0
	for _, level := range levels {
		w, ok := riskWeights[level]
		if !ok {
			w = riskWeights["medium"]
		}
		score += w
	}
	if score > 100 {
		return 100
	}
	return score
}

// RiskLabel partitions a score into its band.
func RiskLabel(score int) string {
	switch {
	case score >= 75:
		return "CRITICAL"
	case score >= 50:
		return "HIGH"
	case score >= 25:
		return "MODERATE"
	default:
		return "LOW"
	}
}
