package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set with -ldflags "-X github.com/intelliplan/planboard/cmd.version=...".
var version = "dev"

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the Planboard version and build details",
	// Printing a version needs no config or sources.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		info, _ := debug.ReadBuildInfo()
		printVersion(cmd.OutOrStdout(), info, versionShort)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	rootCmd.AddCommand(versionCmd)
}

func printVersion(w io.Writer, info *debug.BuildInfo, short bool) {
	if short {
		fmt.Fprintln(w, version)
		return
	}
	fmt.Fprintf(w, "planboard %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if info == nil {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision", "vcs.time", "vcs.modified":
			fmt.Fprintf(w, "  %s: %s\n", s.Key, s.Value)
		}
	}
}
