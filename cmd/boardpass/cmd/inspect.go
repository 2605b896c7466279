package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/boardpass/internal/pdf"
	"github.com/spf13/cobra"
)

// inspectCmd represents the inspect command.
var inspectCmd = &cobra.Command{
	Use:   "inspect <pdf>",
	Short: "Validate a boarding pass PDF and print its text",
	Long: `Validate a PDF, count its pages and embedded images and extract the
text of each page.

Examples:
  boardpass inspect BoardingPass-Jane_Doe-LH401.pdf
  boardpass inspect pass.pdf --pages 1 --format json`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := validateFormat(format); err != nil {
			return err
		}
		pages, _ := cmd.Flags().GetString("pages")

		res, err := pdf.InspectFile(args[0], pages)
		if err != nil {
			return err
		}
		if format == outputFormatJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		return printInspection(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json)")
	inspectCmd.Flags().String("pages", "", "page range to extract, e.g. 1-3,5 (default all)")
}

func printInspection(cmd *cobra.Command, res *pdf.Inspection) error {
	out := cmd.OutOrStdout()
	valid := "yes"
	if !res.Valid {
		valid = "no (" + res.ValidationError + ")"
	}
	if _, err := fmt.Fprintf(out, "File: %s\nVersion: %s\nSize: %d bytes\nValid: %s\nEncrypted: %t\nPages: %d\n",
		res.Filename, res.Version, res.SizeBytes, valid, res.Encrypted, res.TotalPages); err != nil {
		return err
	}
	for _, p := range res.Pages {
		if _, err := fmt.Fprintf(out, "\n--- Page %d (%d words, %d images) ---\n%s\n",
			p.PageNumber, p.WordCount, p.Images, p.Text); err != nil {
			return err
		}
	}
	return nil
}
