package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		save         bool
		scanExisting bool
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and scan every JAR dropped into it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := a.build(nil, save)
			if err != nil {
				return err
			}

			fw, err := a.startWatcher(ctx, c, args[0], scanExisting)
			if err != nil {
				return err
			}
			defer fw.Stop()

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "persist reports to the configured database")
	cmd.Flags().BoolVar(&scanExisting, "existing", false, "scan JARs already present in the directory")
	cmd.Flags().String("pattern", "", "file name pattern (default *.jar)")
	bindFlags(a.v, cmd.Flags(), map[string]string{"watcher.pattern": "pattern"})

	return cmd
}
