package metrics

import (
	"regexp"
	"strings"
	"time"
)

var labelSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)

// RecordPhase counts one page phase. result is "ok", "failed" or "skipped".
func (m *Metrics) RecordPhase(phase, result string) {
	m.PhasesTotal.WithLabelValues(
		sanitizeLabel(phase, "unknown"),
		sanitizeLabel(result, "unknown"),
	).Inc()
}

// RecordVariant counts one finished variant by result, e.g. "ok", "partial"
// or a failure kind.
func (m *Metrics) RecordVariant(result string) {
	m.VariantsTotal.WithLabelValues(sanitizeLabel(result, "unknown")).Inc()
}

// RecordGeneration observes the duration of one whole request
func (m *Metrics) RecordGeneration(mode string, d time.Duration) {
	m.GenerationDuration.WithLabelValues(sanitizeLabel(mode, "unknown")).Observe(d.Seconds())
}

// RecordSectionSize observes the node count of a normalized section
func (m *Metrics) RecordSectionSize(nodes int) {
	m.NormalizedNodes.Observe(float64(nodes))
}

func sanitizeLabel(raw, fallback string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return fallback
	}
	s = labelSanitizer.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return fallback
	}
	if len(s) > 63 {
		s = s[:63]
	}
	return s
}
