package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/drip/internal/store"
)

// DueItemView is one queue entry in the due listing.
type DueItemView struct {
	ID        int64  `json:"id"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
}

// DueResult is the JSON payload of the due command.
type DueResult struct {
	Due     []DueItemView `json:"due"`
	Pending int           `json:"pending"`
}

// NewDueCommand creates the due command.
func NewDueCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath string
		asOf   string
	)

	cmd := &cobra.Command{
		Use:           "due",
		Short:         "List the notifications a run would pick up",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDue(rootOpts, cmd, dbPath, asOf)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the due-item database (required)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "treat this RFC 3339 instant as now (default: current time)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runDue(opts *RootOptions, cmd *cobra.Command, dbPath, asOf string) error {
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

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	items, err := st.FindDue(cmd.Context(), now)
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "query due items", err)
	}
	pending, err := st.CountPending(cmd.Context())
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "count pending items", err)
	}

	result := DueResult{Due: make([]DueItemView, 0, len(items)), Pending: pending}
	for _, item := range items {
		result.Due = append(result.Due, DueItemView{
			ID:        int64(item.ID),
			Recipient: item.Recipient,
			Content:   item.Content,
		})
	}

	return formatter.Success(result, func(w io.Writer) {
		if len(result.Due) == 0 {
			fmt.Fprintln(w, "nothing due")
		}
		for _, item := range result.Due {
			fmt.Fprintf(w, "%d\t%s\t%s\n", item.ID, item.Recipient, item.Content)
		}
		fmt.Fprintf(w, "%d due now, %d pending in total\n", len(result.Due), result.Pending)
	})
}
