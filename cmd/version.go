package cmd

import (
	"fmt"
	"runtime"

	"github.com/eleven-am/conduit/pkg/conduit"
	"github.com/spf13/cobra"
)

// Version information - these can be set at build time using ldflags
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print detailed version information including version number, git commit, build date, and Go version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("conduit version %s\n", conduit.Version)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		fmt.Printf("  Built:      %s\n", BuildDate)
		fmt.Printf("  Go version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	conduit.SetBuildInfo(GitCommit, BuildDate)
}
