package main

import (
	"fmt"
	"os"

	"github.com/lk2023060901/regulatory-dashboard-backend/cmd/regctl/cli"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewReconcileCommand())
	root.AddCommand(cli.NewTemplatesCommand())
	root.AddCommand(cli.NewGuidanceCommand())
	root.AddCommand(cli.NewArtifactsCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
