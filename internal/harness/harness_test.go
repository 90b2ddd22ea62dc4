package harness

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioPath(name string) string {
	return filepath.Join("testdata", "scenarios", name+".yaml")
}

func TestWeeklyDigestScenario(t *testing.T) {
	result := RunGolden(t, scenarioPath("weekly_digest"))

	assert.Equal(t, 3, result.Report.Recipients)
	assert.Equal(t, 3, result.Report.EmailsSent)
	assert.Equal(t, 2, result.Report.BatchesSent)
	assert.Equal(t, []time.Duration{time.Second}, result.Waits,
		"two batches means exactly one rate-limit wait")
}

func TestEmptyQueueScenario(t *testing.T) {
	result := RunGolden(t, scenarioPath("empty_queue"))

	assert.False(t, result.Report.Failed())
	assert.Empty(t, result.Waits)
}

func TestLoadFailureScenario(t *testing.T) {
	result := RunGolden(t, scenarioPath("load_failure"))

	require.True(t, result.Report.Failed())
	assert.ErrorContains(t, result.Report.Err, "database locked")
}

func TestPartialSendFailureScenario(t *testing.T) {
	result := RunGolden(t, scenarioPath("partial_send_failure"))

	require.True(t, result.Report.Failed())
	assert.Equal(t, []time.Duration{time.Second}, result.Waits,
		"the failing batch was still waited for")
}

func TestMarkFailureScenario(t *testing.T) {
	result := RunGolden(t, scenarioPath("mark_failure"))

	require.True(t, result.Report.Failed())
	assert.ErrorContains(t, result.Report.Err, "disk full")
}

func TestRunIsDeterministic(t *testing.T) {
	s, err := LoadScenario(scenarioPath("weekly_digest"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Run(s)
		require.NoError(t, err)
		assert.Equal(t, first.Transcript, again.Transcript)
	}
}

func TestVerifyReportsMismatches(t *testing.T) {
	s, err := LoadScenario(scenarioPath("weekly_digest"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.Empty(t, Verify(s, result))

	s.Expect.EmailsSent = 99
	problems := Verify(s, result)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "emails_sent: want 99, got 3")
}
