package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voicebridge",
	Short: "Voice call bridge between telephony media streams and a realtime speech service",
	Long: `voicebridge answers telephony webhooks and bridges each call's media
stream to a realtime speech-to-speech service. It paces outbound audio at
the telephony frame cadence, handles caller barge-in, executes model tool
calls against the domain API, and persists a record of every call.

Usage:
  voicebridge serve -c config.yaml
  voicebridge calls recent --user u_123`,
}

var cfgFile string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "voicebridge.yaml", "config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(callsCmd)
}
