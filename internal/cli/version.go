package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

func newVersionCmd(streams Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := map[string]string{
				"name":    "stackcheck",
				"version": Version,
				"go":      runtime.Version(),
			}
			out, _ := json.MarshalIndent(info, "", "  ")
			fmt.Fprintln(streams.Out, string(out))
		},
	}
}
