package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/podx/internal/shared"
)

// Open launches the back end's web interface in the default browser.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	url := r.api.BaseURL()
	r.logger.Debug("opening browser", "url", url)
	if err := shared.OpenBrowser(url); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	r.writePlain("Opened %s\n", url)
	return nil
}
