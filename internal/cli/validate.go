package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/drip/internal/compiler"
	"github.com/roach88/drip/internal/mailer"
)

// ValidationResult holds the outcome of validating a campaign file.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Name      string `json:"name,omitempty"`
	From      string `json:"from,omitempty"`
	Subject   string `json:"subject,omitempty"`
	SendLimit int    `json:"send_limit,omitempty"`
	Interval  string `json:"interval,omitempty"`
	Field     string `json:"field,omitempty"`
	Problem   string `json:"problem,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <campaign.cue>",
		Short: "Validate a campaign file",
		Long: `Compile a campaign CUE file and report the settings a run would
use, with defaults resolved. Nothing is sent.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args[0])
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command, path string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	campaign, err := compiler.LoadCampaign(path)
	if err != nil {
		var cerr *compiler.CompileError
		if errors.As(err, &cerr) {
			// The file was readable but the campaign is wrong: that is
			// a validation failure, not a command error.
			result := ValidationResult{Valid: false, Field: cerr.Field, Problem: cerr.Message}
			_ = formatter.Success(result, func(w io.Writer) {
				fmt.Fprintf(w, "invalid campaign: %v\n", cerr)
			})
			return WrapExitError(ExitFailure, "campaign invalid", cerr)
		}
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "load campaign", err)
	}

	result := ValidationResult{
		Valid:     true,
		Name:      campaign.Name,
		From:      campaign.From,
		Subject:   campaign.Subject,
		SendLimit: campaign.SendLimit,
		Interval:  campaign.Interval.String(),
	}
	if result.SendLimit == 0 {
		result.SendLimit = mailer.DefaultSendLimit
	}
	if campaign.Interval == 0 {
		result.Interval = mailer.DefaultInterval.String()
	}

	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "campaign %q is valid\n", result.Name)
		fmt.Fprintf(w, "  from:       %s\n", result.From)
		fmt.Fprintf(w, "  subject:    %s\n", result.Subject)
		fmt.Fprintf(w, "  send limit: %d per batch\n", result.SendLimit)
		fmt.Fprintf(w, "  interval:   %s between batches\n", result.Interval)
	})
}
