package cli

import (
	cliContext "github.com/OminiX-ai/ominix-hub/core/cli/context"
)

var CLI struct {
	cliContext.Context `embed:""`

	Models  ModelsCMD  `cmd:"" help:"List, search, install and remove models from the catalog" default:"withargs"`
	Catalog CatalogCMD `cmd:"" help:"Manage the model catalog"`
}
