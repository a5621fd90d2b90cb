package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"settlement-engine/internal/commission"
	"settlement-engine/internal/money"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Print the commission breakdown of a gross amount",
	Example: `  settlement quote --gross 100000
  settlement quote --gross 45000 --commission-rate 0.12 --iva-rate 0.19`,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().Int64("gross", 0, "Gross amount in CLP")
	quoteCmd.Flags().Float64("commission-rate", -1, "Commission rate (default: COMMISSION_RATE)")
	quoteCmd.Flags().Float64("iva-rate", -1, "IVA rate (default: IVA_RATE)")
	_ = quoteCmd.MarkFlagRequired("gross")
}

func runQuote(cmd *cobra.Command, args []string) error {
	gross, _ := cmd.Flags().GetInt64("gross")
	rates := commission.Rates{Commission: config.Rates.Commission, IVA: config.Rates.IVA}
	if cmd.Flags().Changed("commission-rate") {
		rates.Commission, _ = cmd.Flags().GetFloat64("commission-rate")
	}
	if cmd.Flags().Changed("iva-rate") {
		rates.IVA, _ = cmd.Flags().GetFloat64("iva-rate")
	}

	breakdown, err := commission.Calculate(gross, rates)
	if err != nil {
		return err
	}

	return printBreakdown(cmd.OutOrStdout(), breakdown, rates)
}

func printBreakdown(w io.Writer, b commission.Breakdown, rates commission.Rates) error {
	lines := []struct {
		label  string
		amount int64
	}{
		{"Bruto", b.GrossAmount},
		{fmt.Sprintf("Comisión (%.2f%%)", rates.Commission*100), b.CommissionBase},
		{fmt.Sprintf("IVA (%.2f%%)", rates.IVA*100), b.IVAAmount},
		{"Pago operador", b.OperatorPayout},
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, l := range lines {
		formatted, err := money.FormatCurrency(l.amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", l.label, formatted)
	}
	return tw.Flush()
}
