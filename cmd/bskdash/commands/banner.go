package commands

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/sevaops/bskdash/config"
	"github.com/sevaops/bskdash/version"
)

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(cfg *config.Config) {
	versionInfo := version.Get()

	pterm.DefaultBox.
		WithTitle("BSK Training Optimization API").
		WithTitleTopCenter().
		Println(fmt.Sprintf(
			"Version:  %s (commit %s)\nBackend:  %s\nPort:     %d",
			versionInfo.Version,
			versionInfo.Short(),
			cfg.Data.Backend,
			cfg.Server.Port,
		))

	pterm.Info.Println("Press Ctrl+C to stop")
}
