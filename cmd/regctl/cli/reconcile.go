package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	artifactdata "github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/data"
	"github.com/spf13/cobra"
)

func NewReconcileCommand() *cobra.Command {
	var (
		apply bool
		grace time.Duration
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Find orphan blobs and dangling metadata rows",
		Long: `Scan the documents and templates prefixes and compare them against the metadata tables.
Without --apply the command only reports. With --apply, orphan blobs older than the grace period are deleted and journal
entries confirmed consistent by the scan are resolved. Dangling rows are always reported, never removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withData(cmd, func(ctx context.Context, e *env, d *data.Data) error {
				if !cmd.Flags().Changed("grace") {
					grace = e.config.Reconcile.Grace
				}
				journal := artifactdata.NewRedisJournal(d.Redis)
				reconciler := biz.NewReconciler(journal, grace, e.log)

				targets := []biz.ReconcileTarget{
					{
						Name:   "documents",
						Prefix: types.PrefixDocuments,
						Blobs:  d.Documents,
						Keys:   artifactdata.NewArtifactRepo(d.DB),
					},
					{
						Name:   "templates",
						Prefix: types.PrefixTemplates,
						Blobs:  d.Templates,
						Keys:   artifactdata.NewTemplateRepo(d.DB),
					},
				}

				reports := make([]*biz.ReconcileReport, 0, len(targets))
				for _, target := range targets {
					report, err := reconciler.Run(ctx, target, apply)
					if err != nil {
						return fmt.Errorf("reconcile %s: %w", target.Name, err)
					}
					reports = append(reports, report)
				}

				out := struct {
					Reports  []*biz.ReconcileReport `json:"reports"`
					Resolved int                    `json:"journal_resolved"`
				}{Reports: reports}

				if apply {
					resolved, err := reconciler.DrainJournal(ctx, reports...)
					if err != nil {
						return fmt.Errorf("drain journal: %w", err)
					}
					out.Resolved = resolved
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "delete orphan blobs older than the grace period")
	cmd.Flags().DurationVar(&grace, "grace", time.Hour, "ignore orphan blobs younger than this (defaults to reconcile.grace)")

	return cmd
}
