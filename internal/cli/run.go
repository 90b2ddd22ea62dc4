package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/drip/internal/compiler"
	"github.com/roach88/drip/internal/mailer"
	"github.com/roach88/drip/internal/store"
	"github.com/roach88/drip/internal/transport"
)

// RunResult is the JSON payload of a completed run.
type RunResult struct {
	Campaign    string `json:"campaign"`
	Recipients  int    `json:"recipients"`
	EmailsSent  int    `json:"emails_sent"`
	BatchesSent int    `json:"batches_sent"`
	DryRun      bool   `json:"dry_run"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath       string
		campaignPath string
		asOf         string
		smtpAddr     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send everything currently due",
		Long: `Load the notifications due as of now, group them into one email
per recipient, and send them in rate-limited batches.

Without --smtp no mail leaves the machine: sends are logged and items
are marked completed as if delivered.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(rootOpts, cmd, dbPath, campaignPath, asOf, smtpAddr)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the due-item database (required)")
	cmd.Flags().StringVar(&campaignPath, "campaign", "", "path to the campaign CUE file (required)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "treat this RFC 3339 instant as now (default: current time)")
	cmd.Flags().StringVar(&smtpAddr, "smtp", "", "SMTP relay host:port (default: dry run)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("campaign")

	return cmd
}

func runRun(opts *RootOptions, cmd *cobra.Command, dbPath, campaignPath, asOf, smtpAddr string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	now, err := parseAsOf(asOf)
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --as-of", err)
	}

	campaign, err := compiler.LoadCampaign(campaignPath)
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "load campaign", err)
	}
	formatter.VerboseLog("campaign %q loaded from %s", campaign.Name, campaignPath)

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	var tr mailer.Transport
	dryRun := smtpAddr == ""
	if dryRun {
		formatter.VerboseLog("no --smtp given, dry run: nothing will be delivered")
		tr = &transport.DryRun{Log: slog.Default()}
	} else {
		tr = &transport.SMTP{Addr: smtpAddr, Log: slog.Default()}
	}

	program := &mailer.Program{
		Campaign:  *campaign,
		Source:    st,
		Transport: tr,
		Marker:    st,
		Timer:     mailer.SystemTimer{},
		Log:       slog.Default(),
	}

	report, err := program.Run(cmd.Context(), now)
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "run aborted", err)
	}
	if report.Failed() {
		_ = formatter.Error(report.Err.Error(), nil)
		return WrapExitError(ExitFailure, "run failed", report.Err)
	}

	result := RunResult{
		Campaign:    campaign.Name,
		Recipients:  report.Recipients,
		EmailsSent:  report.EmailsSent,
		BatchesSent: report.BatchesSent,
		DryRun:      dryRun,
	}
	return formatter.Success(result, func(w io.Writer) {
		if result.DryRun {
			fmt.Fprintln(w, "dry run: nothing was delivered")
		}
		fmt.Fprintf(w, "campaign:     %s\n", result.Campaign)
		fmt.Fprintf(w, "recipients:   %d\n", result.Recipients)
		fmt.Fprintf(w, "emails sent:  %d\n", result.EmailsSent)
		fmt.Fprintf(w, "batches sent: %d\n", result.BatchesSent)
	})
}

// parseAsOf parses the --as-of flag; empty means the current time.
func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be RFC 3339 (e.g. 2025-06-01T12:00:00Z): %w", err)
	}
	return t, nil
}
