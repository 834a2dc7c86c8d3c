package cli

import (
	"context"
	"fmt"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/conf"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"github.com/spf13/cobra"
)

type VersionInfo struct {
	Version string
	Commit  string
}

type envKey struct{}

// env 子命令共享的配置与日志
type env struct {
	config *conf.Config
	log    *logger.Logger
}

func NewRootCommand(info VersionInfo) *cobra.Command {
	var (
		path     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "regctl",
		Short:         "Regulatory dashboard admin tool",
		Long:          "Administrative commands for the regulatory dashboard: storage reconciliation and template/guidance imports.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := conf.Load(path)
			if err != nil {
				return err
			}
			if logLevel != "" {
				config.Log.Level = logLevel
			}
			config.Log.Output = "console"
			config.Log.Format = "console"

			log, err := logger.New(&config.Log)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &env{config: config, log: log}))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (defaults and REGDASH_* env only when empty)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}

func envFrom(cmd *cobra.Command) (*env, error) {
	e, ok := cmd.Context().Value(envKey{}).(*env)
	if !ok {
		return nil, fmt.Errorf("command %q ran without configuration", cmd.Name())
	}
	return e, nil
}

// withData 打开数据层并在 fn 返回后释放
func withData(cmd *cobra.Command, fn func(ctx context.Context, e *env, d *data.Data) error) error {
	e, err := envFrom(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	ctx := cmd.Context()
	d, cleanup, err := data.NewData(ctx, e.config, e.log)
	if err != nil {
		return fmt.Errorf("failed to initialize data layer: %w", err)
	}
	defer cleanup()

	return fn(ctx, e, d)
}
