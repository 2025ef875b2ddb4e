package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zhuangyq008/s3-image-process/internal/chain"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

func newOpsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List supported operations and their parameter keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "OPERATION\tKEYS")
			for _, kind := range domain.KnownOps {
				fmt.Fprintf(tw, "%s\t%s\n", kind, strings.Join(chain.ParamKeys[kind], ", "))
			}
			return tw.Flush()
		},
	}
}
