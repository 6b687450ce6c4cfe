package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"kuanb/scout-choropleth/geom"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured source's snapshot as GeoJSON",
	Long:  "Useful for turning an OSM extract or a PostGIS table into a file the file driver can serve.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := fetchSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		data, err := geom.EncodeGeoJSON(fc)
		if err != nil {
			return err
		}
		if exportOut == "" || exportOut == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return eris.Wrapf(err, "export: write %s", exportOut)
		}
		cmd.Printf("wrote %d regions to %s\n", len(fc), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file (- for stdout)")
	rootCmd.AddCommand(exportCmd)
}
