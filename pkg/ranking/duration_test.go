package ranking

import (
	"encoding/json"
	"testing"
	"time"
)

type secondsValue float64

func (s secondsValue) Seconds() float64 { return float64(s) }

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected time.Duration
	}{
		{"nil", nil, 0},
		{"int seconds", 200, 200 * time.Second},
		{"int64 seconds", int64(61), 61 * time.Second},
		{"float seconds", 90.5, 90500 * time.Millisecond},
		{"json number", json.Number("240"), 240 * time.Second},
		{"bad json number", json.Number("x"), 0},
		{"seconder", secondsValue(75), 75 * time.Second},
		{"seconds map", map[string]any{"seconds": 42}, 42 * time.Second},
		{"map without seconds", map[string]any{"ms": 42}, 0},
		{"minutes and seconds", "3:45", 225 * time.Second},
		{"hours", "1:02:03", 3723 * time.Second},
		{"plain string seconds", "215", 215 * time.Second},
		{"NA", "NA", 0},
		{"garbage", "abc", 0},
		{"too many parts", "1:2:3:4", 0},
		{"negative", -5, 0},
		{"duration value", 3 * time.Second, 3 * time.Second},
		{"unsupported type", struct{}{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDuration(tt.input); got != tt.expected {
				t.Errorf("ParseDuration(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
