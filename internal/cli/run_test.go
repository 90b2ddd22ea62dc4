package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drip/internal/store"
)

// execute runs the CLI with args and returns captured stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seedDatabase creates a database with three overdue items for two
// recipients and returns its path.
func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drip.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	due := time.Now().Add(-time.Hour)
	_, err = s.InsertDueItem(ctx, "alice@example.test", "your build finished", due)
	require.NoError(t, err)
	_, err = s.InsertDueItem(ctx, "bob@example.test", "2 reviews are waiting", due)
	require.NoError(t, err)
	_, err = s.InsertDueItem(ctx, "alice@example.test", "deploy window opens Friday", due)
	require.NoError(t, err)
	return path
}

func writeCampaign(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campaign.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunDryRun(t *testing.T) {
	dbPath := seedDatabase(t)
	campaignPath := writeCampaign(t, `
campaign: {
	name:     "digest"
	from:     "drip@example.test"
	interval: "1ms"
}
`)

	out, err := execute(t, "run", "--db", dbPath, "--campaign", campaignPath)
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")
	assert.Contains(t, out, "recipients:   2")
	assert.Contains(t, out, "emails sent:  2")
	assert.Contains(t, out, "batches sent: 1")

	// Dry-run delivery still marks items completed.
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	pending, err := s.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestRunRateLimitedBatches(t *testing.T) {
	dbPath := seedDatabase(t)
	campaignPath := writeCampaign(t, `
campaign: {
	name:       "digest"
	from:       "drip@example.test"
	send_limit: 1
	interval:   "1ms"
}
`)

	out, err := execute(t, "run", "--db", dbPath, "--campaign", campaignPath)
	require.NoError(t, err)
	assert.Contains(t, out, "batches sent: 2")
}

func TestRunNothingDue(t *testing.T) {
	dbPath := seedDatabase(t)
	campaignPath := writeCampaign(t, `
campaign: {
	name: "digest"
	from: "drip@example.test"
}
`)

	// Everything in the seed database became due only an hour ago.
	out, err := execute(t, "run",
		"--db", dbPath,
		"--campaign", campaignPath,
		"--as-of", time.Now().Add(-24*time.Hour).UTC().Format(time.RFC3339),
	)
	require.NoError(t, err)
	assert.Contains(t, out, "emails sent:  0")
}

func TestRunInvalidAsOf(t *testing.T) {
	dbPath := seedDatabase(t)
	campaignPath := writeCampaign(t, `campaign: { name: "x", from: "a@b.test" }`)

	_, err := execute(t, "run", "--db", dbPath, "--campaign", campaignPath, "--as-of", "yesterday")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunMissingCampaignFile(t *testing.T) {
	dbPath := seedDatabase(t)

	_, err := execute(t, "run", "--db", dbPath, "--campaign", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunRequiresFlags(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
}
