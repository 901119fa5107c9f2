package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/wa-handoff-panel/internal/sse"
)

func newSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Revert every expired human session once",
		Long: `Revert every expired human session once.

Run it from cron when the server's SWEEP_INTERVAL is 0. No dashboard is
connected to this process, so only the event mirror (AMQP_URL) hears about
the reverts; dashboards pick them up on their next read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := a.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			pub, err := newPublisher(a.cfg.AMQP, a.cfg.OTEL.ServiceName)
			if err != nil {
				return err
			}
			defer pub.Close()

			hub := sse.NewHub()
			defer hub.Close()

			n, err := newStatusService(a.cfg, db, hub, pub).SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reverted %d expired human session(s)\n", n)
			return nil
		},
	}
}
