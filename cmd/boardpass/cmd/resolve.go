package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/boardpass/internal/lookup"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/spf13/cobra"
)

// resolveCmd represents the resolve command.
var resolveCmd = &cobra.Command{
	Use:   "resolve <flight-code>",
	Short: "Look up a ticket by flight code",
	Long: `Look up the ticket whose flight code is the given QR payload and print
the ticket detail. Surrounding whitespace in the payload is ignored.

Examples:
  boardpass resolve LH401
  boardpass resolve LH401 --format json
  boardpass resolve LH401 --backend http --api-url https://flights.example.com`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := validateFormat(format); err != nil {
			return err
		}

		rec, err := resolvePayload(cmd, args[0])
		if err != nil {
			return err
		}
		return printRecord(cmd, rec, format)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json)")
}

// resolvePayload opens the configured store for a single lookup.
func resolvePayload(cmd *cobra.Command, payload string) (ticket.Record, error) {
	store, err := lookup.Open(GetConfig().Lookup)
	if err != nil {
		return ticket.Record{}, fmt.Errorf("open ticket store: %w", err)
	}
	defer func() { _ = store.Close() }()

	return ticket.NewResolver(store).Resolve(cmd.Context(), payload)
}

func printRecord(cmd *cobra.Command, rec ticket.Record, format string) error {
	if format == outputFormatJSON {
		return writeJSON(cmd.OutOrStdout(), rec)
	}
	return printTicket(cmd.OutOrStdout(), rec)
}
