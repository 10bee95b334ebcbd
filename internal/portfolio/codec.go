package portfolio

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"portfolioBot/internal/metrics"
)

func EncodeBundle(b metrics.Bundle) ([]byte, error) {
	out, err := msgpack.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return out, nil
}

// DecodeBundle restores a cached bundle so it compares equal to the one
// that was stored: times come back in UTC and attribution is never nil.
func DecodeBundle(data []byte) (metrics.Bundle, error) {
	var b metrics.Bundle
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return metrics.Bundle{}, fmt.Errorf("decode bundle: %w", err)
	}
	b.ComputedAt = b.ComputedAt.UTC()
	if b.PerformanceAttribution == nil {
		b.PerformanceAttribution = []metrics.Attribution{}
	}
	return b, nil
}
