package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/drip/internal/store"
)

// EnqueueResult is the JSON payload of a successful enqueue.
type EnqueueResult struct {
	ID        int64  `json:"id"`
	Recipient string `json:"recipient"`
	DueAt     string `json:"due_at"`
}

// NewEnqueueCommand creates the enqueue command.
func NewEnqueueCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath string
		dueAt  string
	)

	cmd := &cobra.Command{
		Use:   "enqueue <recipient> <content>",
		Short: "Queue a notification for delivery",
		Long: `Add a notification to the queue. It becomes eligible for sending
once its due date has passed and a run picks it up.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnqueue(rootOpts, cmd, dbPath, dueAt, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the due-item database (required)")
	cmd.Flags().StringVar(&dueAt, "due", "", "RFC 3339 due date (default: now)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runEnqueue(opts *RootOptions, cmd *cobra.Command, dbPath, dueAt, recipient, content string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	due := time.Now()
	if dueAt != "" {
		var err error
		due, err = time.Parse(time.RFC3339, dueAt)
		if err != nil {
			_ = formatter.Error(fmt.Sprintf("--due must be RFC 3339: %v", err), nil)
			return WrapExitError(ExitCommandError, "invalid --due", err)
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	id, err := st.InsertDueItem(cmd.Context(), recipient, content, due)
	if err != nil {
		_ = formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "enqueue", err)
	}

	result := EnqueueResult{
		ID:        int64(id),
		Recipient: recipient,
		DueAt:     due.UTC().Format(time.RFC3339),
	}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "queued item %d for %s, due %s\n", result.ID, result.Recipient, result.DueAt)
	})
}
