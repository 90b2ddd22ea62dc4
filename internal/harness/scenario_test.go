package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `
name: smoke
description: minimal valid scenario
campaign:
  from: drip@example.test
  send_limit: 5
  interval: 250ms
items:
  - recipient: alice@example.test
    content: hello
expect:
  recipients: 1
  emails_sent: 1
  batches_sent: 1
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke", s.Name)
	assert.Equal(t, 5, s.Campaign.SendLimit)
	require.Len(t, s.Items, 1)
	assert.Equal(t, "alice@example.test", s.Items[0].Recipient)
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: has a misspelled key
campaign:
  from: drip@example.test
expectation:
  recipients: 0
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenarioValidation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"missing name",
			"description: d\ncampaign: {from: a@b.test}\n",
			"name is required",
		},
		{
			"missing from",
			"name: n\ndescription: d\ncampaign: {subject: s}\n",
			"campaign.from is required",
		},
		{
			"bad interval",
			"name: n\ndescription: d\ncampaign: {from: a@b.test, interval: soon}\n",
			"campaign interval",
		},
		{
			"item without recipient",
			"name: n\ndescription: d\ncampaign: {from: a@b.test}\nitems: [{content: c}]\n",
			"recipient is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
