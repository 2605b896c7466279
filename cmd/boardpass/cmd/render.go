package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// renderCmd represents the render command.
var renderCmd = &cobra.Command{
	Use:   "render <flight-code>",
	Short: "Render the boarding pass PDF for a ticket",
	Long: `Look up a ticket and write its boarding pass as a single A4 page PDF.

The file is named BoardingPass-{name}-{code}.pdf and placed in render.output_dir
unless --output is given. Without a readable logo the pass carries a text
header instead.

Examples:
  boardpass render LH401
  boardpass render LH401 --profile classic --seat 12A
  boardpass render LH401 --logo assets/logo.png --output pass.pdf`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := resolvePayload(cmd, args[0])
		if err != nil {
			return err
		}
		path, err := writeBoardingPass(cmd, GetConfig(), rec)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addRenderFlags(renderCmd)
}
