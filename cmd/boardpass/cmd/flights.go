package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/MeKo-Tech/boardpass/internal/dateformat"
	"github.com/MeKo-Tech/boardpass/internal/lookup"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/spf13/cobra"
)

// flightsCmd represents the flights command.
var flightsCmd = &cobra.Command{
	Use:   "flights",
	Short: "List scheduled flights",
	Long: `List the flights known to the lookup backend. The memory backend lists
the flights of its fixtures file, the http backend queries /vuelos/getvuelos.

Examples:
  boardpass flights --fixtures tickets.yaml
  boardpass flights --backend http --api-url https://flights.example.com --format json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := validateFormat(format); err != nil {
			return err
		}

		cfg := GetConfig()
		store, err := lookup.Open(cfg.Lookup)
		if err != nil {
			return fmt.Errorf("open ticket store: %w", err)
		}
		defer func() { _ = store.Close() }()

		lister, ok := store.(lookup.FlightLister)
		if !ok {
			return fmt.Errorf("backend %s cannot list flights", cfg.Lookup.Backend)
		}
		flights, err := lister.ListFlights(cmd.Context())
		if err != nil {
			return fmt.Errorf("%w: list flights: %w", ticket.ErrLookupUnavailable, err)
		}

		if format == outputFormatJSON {
			return writeJSON(cmd.OutOrStdout(), flights)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "VUELO\tSALIDA\tLLEGADA\tORIGEN\tESTADO")
		for _, f := range flights {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.Code,
				schedule(f.DepartureDate, f.DepartureTime),
				schedule(f.ArrivalDate, f.ArrivalTime),
				origin(f), dateformat.OrDash(f.Status))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(flightsCmd)
	flightsCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json)")
}

func origin(f lookup.Flight) string {
	switch {
	case f.OriginAirport == "":
		return dateformat.OrDash(f.OriginCountry)
	case f.OriginCountry == "":
		return f.OriginAirport
	default:
		return f.OriginAirport + " (" + f.OriginCountry + ")"
	}
}
