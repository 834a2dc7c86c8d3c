package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	artifactdata "github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/workerpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage global templates",
	}
	cmd.AddCommand(newTemplatesImportCommand())
	return cmd
}

func newTemplatesImportCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "import <manifest.yaml>",
		Short: "Import templates listed in a YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			manifest, err := ParseManifest(f, filepath.Dir(args[0]))
			f.Close()
			if err != nil {
				return err
			}

			return withData(cmd, func(ctx context.Context, e *env, d *data.Data) error {
				journal := artifactdata.NewRedisJournal(d.Redis)
				uc := biz.NewTemplateUseCase(artifactdata.NewTemplateRepo(d.DB), d.Templates, journal, e.config.SyncOptions(), e.log)

				pool, err := workerpool.New(&workerpool.Config{Workers: workers}, e.log)
				if err != nil {
					return err
				}
				defer pool.Shutdown()

				for i := range manifest.Templates {
					entry := manifest.Templates[i]
					if err := pool.Submit(ctx, entry.Title, func(ctx context.Context) error {
						return importTemplate(ctx, uc, &entry)
					}); err != nil {
						return err
					}
				}

				err = pool.Wait()
				stats := pool.Stats()
				e.log.Info("template import finished",
					zap.Int64("imported", stats.Completed),
					zap.Int64("failed", stats.Failed),
				)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d, failed %d\n", stats.Completed, stats.Failed)
				return err
			})
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent uploads")
	return cmd
}

func importTemplate(ctx context.Context, uc *biz.TemplateUseCase, entry *TemplateEntry) error {
	tpl, err := entry.Template()
	if err != nil {
		return err
	}

	in := &biz.TemplateImport{Template: tpl}
	if entry.File != "" {
		f, err := os.Open(entry.File)
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}
		in.Content = f
		in.Size = info.Size()
		in.SourceName = filepath.Base(entry.File)
	}

	_, err = uc.Import(ctx, in)
	return err
}
