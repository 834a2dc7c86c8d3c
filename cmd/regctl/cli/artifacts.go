package cli

import (
	"context"
	"fmt"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	artifactdata "github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/workerpool"
	"github.com/spf13/cobra"
)

func NewArtifactsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Maintain uploaded artifacts",
	}
	cmd.AddCommand(newFixSizeCommand())
	return cmd
}

func newFixSizeCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "fix-size <id>...",
		Short: "Re-read blobs and correct recorded byte sizes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withData(cmd, func(ctx context.Context, e *env, d *data.Data) error {
				uc := biz.NewArtifactUseCase(artifactdata.NewArtifactRepo(d.DB), d.Documents, artifactdata.NewRedisJournal(d.Redis),
					nil, e.config.SyncOptions(), e.log)

				pool, err := workerpool.New(&workerpool.Config{Workers: workers}, e.log)
				if err != nil {
					return err
				}
				defer pool.Shutdown()

				out := cmd.OutOrStdout()
				for _, id := range args {
					if err := pool.Submit(ctx, id, func(ctx context.Context) error {
						size, err := uc.CorrectByteSize(ctx, id)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "%s\t%d\n", id, size)
						return nil
					}); err != nil {
						return err
					}
				}
				return pool.Wait()
			})
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent blob reads")
	return cmd
}
