package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRiskScore(t *testing.T) {
	tests := []struct {
		name     string
		levels   []string
		expected int
	}{
		{"empty", nil, 0},
		{"one critical", []string{"critical"}, 25},
		{"mixed", []string{"critical", "high", "medium", "low"}, 42},
		{"unknown counts as medium", []string{"weird"}, 5},
		{"clamped at 100", []string{"critical", "critical", "critical", "critical", "critical"}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeRiskScore(tt.levels))
		})
	}
}

func TestRiskLabel(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{0, "LOW"},
		{24, "LOW"},
		{25, "MODERATE"},
		{49, "MODERATE"},
		{50, "HIGH"},
		{74, "HIGH"},
		{75, "CRITICAL"},
		{100, "CRITICAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, RiskLabel(tt.score), "score %d", tt.score)
	}
}
