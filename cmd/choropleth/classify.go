package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kuanb/scout-choropleth/format"
	"kuanb/scout-choropleth/geom"
	"kuanb/scout-choropleth/scene"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <metric|all>",
	Short: "Print quantile breakpoints and per-region bins",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics, err := parseMetrics(args[0])
		if err != nil {
			return err
		}
		style, err := cfg.Map.Style()
		if err != nil {
			return err
		}
		fc, err := fetchSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		for _, m := range metrics {
			if err := printClassification(cmd.OutOrStdout(), fc, m, style); err != nil {
				return err
			}
		}
		return nil
	},
}

// printClassification writes the legend and the bin of every region
func printClassification(out io.Writer, fc geom.FeatureCollection, m geom.Metric, style scene.Style) error {
	classifier, err := style.Classifier(m)
	if err != nil {
		return err
	}
	cl := classifier.Classify(fc.Values(m))
	f := format.New(style.Currency)

	fmt.Fprintf(out, "%s: %d regions with data, breakpoints %v\n", style.Label(m), cl.Count, cl.Breakpoints)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BIN\tCOLOR\tFROM\tTO")
	for i, e := range cl.Legend() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, e.Color, f.Value(m, e.Lower, cl.Count > 0), f.Value(m, e.Upper, cl.Count > 0))
	}
	fmt.Fprintf(tw, "-\t%s\t%s\t\n", cl.NoDataColor, format.NoData)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "REGION\tVALUE\tBIN\tFILL")
	for _, feat := range fc {
		v, ok := feat.Value(m)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", feat.RegionName, f.Value(m, v, ok), cl.BinOf(v), cl.ColorOf(v))
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
