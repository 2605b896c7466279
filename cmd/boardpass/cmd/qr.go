package cmd

import (
	"bytes"
	"fmt"

	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/spf13/cobra"
)

// qrCmd represents the qr command.
var qrCmd = &cobra.Command{
	Use:   "qr <payload>",
	Short: "Write a ticket QR code as PNG",
	Long: `Encode a flight code as the QR code printed on tickets.

Examples:
  boardpass qr LH401
  boardpass qr LH401 --size 600 --output lh401.png`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		size, _ := cmd.Flags().GetInt("size")
		if size <= 0 {
			return fmt.Errorf("invalid size: %d (must be positive)", size)
		}
		output, _ := cmd.Flags().GetString("output")

		var buf bytes.Buffer
		if err := barcode.WriteQRPNG(&buf, args[0], size); err != nil {
			return err
		}
		if err := writeFileAtomic(output, buf.Bytes()); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), output)
		return err
	},
}

func init() {
	rootCmd.AddCommand(qrCmd)
	qrCmd.Flags().StringP("output", "o", "qr.png", "output PNG path")
	qrCmd.Flags().Int("size", 300, "approximate image size in pixels")
}
