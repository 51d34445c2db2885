package ranking

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Seconder is implemented by library result types that expose a duration in seconds.
type Seconder interface {
	Seconds() float64
}

// ParseDuration normalises the duration shapes returned by search libraries:
// numeric seconds, a value carrying a seconds field, or a colon separated
// string such as "3:45" or "1:02:03". Anything it cannot read yields 0.
func ParseDuration(v any) time.Duration {
	switch d := v.(type) {
	case nil:
		return 0
	case time.Duration:
		return clamp(d)
	case int:
		return seconds(float64(d))
	case int32:
		return seconds(float64(d))
	case int64:
		return seconds(float64(d))
	case float32:
		return seconds(float64(d))
	case float64:
		return seconds(d)
	case json.Number:
		f, err := d.Float64()
		if err != nil {
			return 0
		}
		return seconds(f)
	case Seconder:
		return seconds(d.Seconds())
	case map[string]any:
		if s, ok := d["seconds"]; ok {
			return ParseDuration(s)
		}
		return 0
	case string:
		return parseDurationString(d)
	}
	return 0
}

func seconds(f float64) time.Duration {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second)).Round(time.Millisecond)
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func parseDurationString(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NA") {
		return 0
	}

	if !strings.Contains(s, ":") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return seconds(f)
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
