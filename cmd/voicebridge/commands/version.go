package commands

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped by the release build; the default covers go install.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the voicebridge version",
	Run: func(cmd *cobra.Command, args []string) {
		v := version
		if v == "dev" {
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
				v = info.Main.Version
			}
		}
		fmt.Println("voicebridge", v)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
