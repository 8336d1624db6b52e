package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cratesync/config"
	"cratesync/convert"
	"cratesync/logger"
)

var (
	convertCrateRoot      string
	convertOutput         string
	convertProductName    string
	convertProductVersion string
	convertDryRun         bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the crate tree once",
	Long:  `Read every .crate file under the crate root and write a Rekordbox XML export.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		applyConvertFlags(cfg)

		converter := convert.New(cfg)
		logger.Info("converting crates",
			logger.String("crateRoot", cfg.CrateRoot),
			logger.String("output", cfg.Output))

		summary, err := converter.ConvertOnce(!convertDryRun)
		if err != nil {
			logger.Fatal("conversion failed", logger.ErrorField(err))
		}
		if convertDryRun {
			logger.Info("dry run complete, xml was not written")
		} else {
			logger.Info("finished writing", logger.String("output", summary.Output))
		}
		for _, line := range convert.SummaryLines(summary) {
			fmt.Println(line)
		}
	},
}

func applyConvertFlags(cfg *config.Config) {
	if convertCrateRoot != "" {
		cfg.CrateRoot = convertCrateRoot
	}
	if convertOutput != "" {
		cfg.Output = convertOutput
	}
	if convertProductName != "" {
		cfg.ProductName = convertProductName
	}
	if convertProductVersion != "" {
		cfg.ProductVersion = convertProductVersion
	}
}

func init() {
	convertCmd.Flags().StringVar(&convertCrateRoot, "crate-root", "", "Directory containing .crate files (default: CRATE_ROOT or ~/Music/_Serato_/Subcrates)")
	convertCmd.Flags().StringVar(&convertOutput, "output", "", "Destination Rekordbox XML file (default: OUTPUT_PATH or ~/Music/_Serato_/rekordbox-export.xml)")
	convertCmd.Flags().StringVar(&convertProductName, "product-name", "", "Product name to embed in XML")
	convertCmd.Flags().StringVar(&convertProductVersion, "product-version", "", "Version string to embed in XML")
	convertCmd.Flags().BoolVar(&convertDryRun, "dry-run", false, "Load crates and report summary without writing XML")
	rootCmd.AddCommand(convertCmd)
}
