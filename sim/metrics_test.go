package sim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Print_TwoLines(t *testing.T) {
	m := &Metrics{Counters: Counters{ErrorsEncountered: 12, ErrorsCorrected: 3}, ErrorsInjected: 20}

	var buf bytes.Buffer
	require.NoError(t, m.Print(&buf))

	assert.Equal(t, "Errors Encountered: 12\nErrors Corrected: 3\n", buf.String())
}

func TestCounters_Sub(t *testing.T) {
	now := Counters{ErrorsEncountered: 10, ErrorsCorrected: 7, Overwrites: 2}
	prev := Counters{ErrorsEncountered: 4, ErrorsCorrected: 7, Overwrites: 1}

	assert.Equal(t, Counters{ErrorsEncountered: 6, ErrorsCorrected: 0, Overwrites: 1}, now.Sub(prev))
}

func TestMetrics_Unaccounted(t *testing.T) {
	m := &Metrics{
		Counters:       Counters{ErrorsEncountered: 5, ErrorsCorrected: 3, Overwrites: 1},
		ErrorsInjected: 10,
		ResidualUpset:  1,
	}
	assert.Equal(t, int64(0), m.Unaccounted())

	m.ErrorsInjected = 11
	assert.Equal(t, int64(1), m.Unaccounted())
}
