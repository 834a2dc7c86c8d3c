package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	artifactdata "github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/data"
	"github.com/spf13/cobra"
)

func NewGuidanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guidance",
		Short: "Manage the guidance library",
	}
	cmd.AddCommand(newGuidanceImportCommand())
	return cmd
}

func newGuidanceImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <documents.json>",
		Short: "Upsert guidance documents from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			docs, err := decodeGuidance(f)
			f.Close()
			if err != nil {
				return err
			}

			return withData(cmd, func(ctx context.Context, e *env, d *data.Data) error {
				options := artifactdata.NewRedisOptionsCache(d.Redis, e.config.Query.OptionsTTL)
				uc := biz.NewGuidanceUseCase(artifactdata.NewGuidanceRepo(d.DB), options, e.log)
				if err := uc.Import(ctx, docs); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "upserted %d guidance documents\n", len(docs))
				return nil
			})
		},
	}
}

func decodeGuidance(r io.Reader) ([]*types.Guidance, error) {
	var docs []*types.Guidance
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to parse guidance documents: %w", err)
	}
	return docs, nil
}
