package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/boardpass/internal/assets"
	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/MeKo-Tech/boardpass/internal/boardingpass"
	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/MeKo-Tech/boardpass/internal/dateformat"
	"github.com/MeKo-Tech/boardpass/internal/document"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/spf13/cobra"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

// Exit codes returned by Execute.
const (
	exitFailure     = 1
	exitNotFound    = 2
	exitUnavailable = 3
	exitNoCode      = 4
)

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		return exitNotFound
	case errors.Is(err, ticket.ErrLookupUnavailable):
		return exitUnavailable
	case errors.Is(err, barcode.ErrDecodeFailure):
		return exitNoCode
	default:
		return exitFailure
	}
}

func validateFormat(format string) error {
	if format != outputFormatText && format != outputFormatJSON {
		return fmt.Errorf("invalid output format: %s (must be one of: %s, %s)", format, outputFormatText, outputFormatJSON)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTicket writes the ticket detail view. Absent values print as "-".
func printTicket(w io.Writer, rec ticket.Record) error {
	rows := [][2]string{
		{"Nombre", dateformat.OrDash(rec.PassengerName)},
		{"Email", dateformat.OrDash(rec.Email)},
		{"Teléfono", dateformat.OrDash(rec.Phone)},
		{"Código Vuelo", dateformat.OrDash(rec.FlightCode)},
		{"Salida", schedule(rec.DepartureDate, rec.DepartureTime)},
		{"Llegada", schedule(rec.ArrivalDate, rec.ArrivalTime)},
		{"Precio USD", ticket.FormatPrice(rec.PriceUSD)},
		{"Precio PEN", ticket.FormatPrice(rec.PricePEN)},
		{"Tipo de Pago", dateformat.OrDash(rec.PaymentType)},
		{"Fecha Reserva", dateformat.Format(dateformat.OrDash(rec.ReservationDate))},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%-14s %s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}
	return nil
}

func schedule(date, clock string) string {
	return strings.TrimSpace(dateformat.Format(dateformat.OrDash(date)) + " " + dateformat.ShortTime(clock))
}

// addRenderFlags registers the per-pass overrides of the render section.
func addRenderFlags(c *cobra.Command) {
	c.Flags().StringP("output", "o", "", "output PDF path (default: BoardingPass-{name}-{code}.pdf in render.output_dir)")
	c.Flags().String("profile", "", "layout profile (rounded, classic)")
	c.Flags().String("seat", "", "seat printed on the pass")
	c.Flags().String("group", "", "boarding group printed on the pass")
	c.Flags().String("booking", "", "booking reference printed on the pass")
	c.Flags().String("logo", "", "logo image file")
	c.Flags().Int("logo-radius", 0, "logo corner radius in pixels (negative for square corners)")
}

// renderOptions merges changed render flags over the configuration.
func renderOptions(c *cobra.Command, cfg *config.Config) (boardingpass.Options, error) {
	opts := boardingpass.OptionsFromConfig(cfg.Render)
	for flag, dst := range map[string]*string{"seat": &opts.Seat, "group": &opts.Group, "booking": &opts.Booking} {
		if c.Flags().Changed(flag) {
			*dst, _ = c.Flags().GetString(flag)
		}
	}
	if c.Flags().Changed("logo-radius") {
		opts.LogoRadius, _ = c.Flags().GetInt("logo-radius")
	}
	profile := string(opts.Profile)
	if c.Flags().Changed("profile") {
		profile, _ = c.Flags().GetString("profile")
	}
	p, err := boardingpass.ParseProfile(profile)
	if err != nil {
		return boardingpass.Options{}, err
	}
	opts.Profile = p
	return opts, nil
}

// logoSource returns the configured logo file, or nil when none is set.
func logoSource(c *cobra.Command, cfg *config.Config) assets.Source {
	path := cfg.Render.LogoPath
	if c.Flags().Lookup("logo") != nil && c.Flags().Changed("logo") {
		path, _ = c.Flags().GetString("logo")
	}
	if path == "" {
		return nil
	}
	return assets.File(path)
}

// writeBoardingPass renders rec into a file and returns its path. The pass is
// rendered in memory and moved into place in one rename, so a failed render
// never creates or clobbers the output file.
func writeBoardingPass(c *cobra.Command, cfg *config.Config, rec ticket.Record) (string, error) {
	opts, err := renderOptions(c, cfg)
	if err != nil {
		return "", err
	}

	path, _ := c.Flags().GetString("output")
	if path == "" {
		path = filepath.Join(cfg.Render.OutputDir, boardingpass.FileName(rec))
	}

	logo, err := assets.Logo(logoSource(c, cfg))
	if err != nil {
		slog.Debug("Rendering without logo", "error", err)
	}

	renderer := boardingpass.NewRenderer(boardingpass.WithLogger(slog.Default()))
	m, err := renderer.Build(rec, logo, opts)
	if err != nil {
		return "", err
	}
	data, err := document.Render(m)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	slog.Info("Boarding pass written", "path", path, "flight", rec.FlightCode, "profile", opts.Profile)
	return path, nil
}

// writeFileAtomic writes data next to path and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".boardpass-*.tmp")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close output file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // G302: boarding passes are meant to be shared
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod output file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("move output file: %w", err)
	}
	return nil
}
