package cmd

import (
	"deepscan/internal/app"

	"github.com/spf13/cobra"
)

var inferOpts app.Options

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Score every face track under a frames root and write a report",
	RunE: func(cmd *cobra.Command, args []string) error {
		inferOpts.ConfigPath = configPath
		return app.RunInference(inferOpts)
	},
}

func init() {
	inferCmd.Flags().StringVar(&inferOpts.DataPath, "data_path", "", "Frames root: {video}/{face}/{frame}.png")
	inferCmd.Flags().StringVar(&inferOpts.MetadataPath, "metadata_path", "", "Directory of JSON label store files")
	inferCmd.Flags().StringVar(&inferOpts.ModelPath, "model_path", "", "Model checkpoint directory")
	inferCmd.Flags().StringVar(&inferOpts.SavePath, "save_path", "", "Report output file")
	inferCmd.Flags().StringVar(&inferOpts.Listen, "listen", "", "Optional addr for the live progress websocket (e.g. :8080)")
	inferCmd.Flags().BoolVar(&inferOpts.SkipMissingLabels, "skip-missing-labels", false, "Skip tracks without a label instead of aborting")
	inferCmd.Flags().BoolVar(&inferOpts.CrossValidation, "cross-validation", false, "Discover tracks under training/ and validation/ subdirectories")

	inferCmd.MarkFlagRequired("data_path")
	inferCmd.MarkFlagRequired("metadata_path")
	inferCmd.MarkFlagRequired("model_path")
	inferCmd.MarkFlagRequired("save_path")

	rootCmd.AddCommand(inferCmd)
}
