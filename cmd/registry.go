package cmd

import "github.com/spf13/cobra"

func RegisterCommands(root *cobra.Command) {
	root.AddCommand(versionCmd)

	root.AddCommand(copyImageCmd)
	root.AddCommand(copyCDXCmd)
	root.AddCommand(copyCmd)
	root.AddCommand(copyTextCmd)
	root.AddCommand(nativeHostCmd)
	root.AddCommand(historyCmd)
	root.AddCommand(configCmd)

	historyCmd.AddCommand(
		historyListCmd,
		historyShowCmd,
		historyPruneCmd,
		historyInfoCmd,
	)
}
