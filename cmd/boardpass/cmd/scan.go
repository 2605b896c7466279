package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/MeKo-Tech/boardpass/internal/utils"
	"github.com/spf13/cobra"
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Read a ticket QR code from an image",
	Long: `Decode the QR code in a photo or screenshot of a ticket, look the ticket
up and print it. With --render the boarding pass is written as well.

Supported formats: JPEG, PNG, BMP, WEBP

Examples:
  boardpass scan ticket.jpg
  boardpass scan ticket.png --decode-only
  boardpass scan ticket.png --render --profile classic`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := validateFormat(format); err != nil {
			return err
		}

		img, meta, err := utils.LoadImage(args[0])
		if err != nil {
			return err
		}
		payload, err := barcode.DecodeQR(cmd.Context(), img)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		slog.Debug("QR code decoded", "file", args[0], "format", meta.Format,
			"width", meta.Width, "height", meta.Height, "payload", payload)

		if decodeOnly, _ := cmd.Flags().GetBool("decode-only"); decodeOnly {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), payload)
			return err
		}

		rec, err := resolvePayload(cmd, payload)
		if err != nil {
			return err
		}
		if err := printRecord(cmd, rec, format); err != nil {
			return err
		}

		if render, _ := cmd.Flags().GetBool("render"); render {
			path, err := writeBoardingPass(cmd, GetConfig(), rec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "Boarding pass saved to %s\n", path)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json)")
	scanCmd.Flags().Bool("decode-only", false, "print the QR payload without looking the ticket up")
	scanCmd.Flags().Bool("render", false, "also write the boarding pass PDF")
	addRenderFlags(scanCmd)
}
