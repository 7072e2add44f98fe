package cli

import (
	"fmt"

	cliContext "github.com/OminiX-ai/ominix-hub/core/cli/context"

	"github.com/OminiX-ai/ominix-hub/core/catalog"
)

type CatalogRefresh struct {
	URL string `env:"OMINIX_REGISTRY_URL,REGISTRY_URL" default:"${registry}" help:"Registry document to fetch"`

	ModelsCMDFlags `embed:""`
}

type CatalogShow struct {
	ModelArgs []string `arg:"" optional:"" name:"models" help:"Model ids to show, all when omitted"`

	ModelsCMDFlags `embed:""`
}

type CatalogCMD struct {
	Refresh CatalogRefresh `cmd:"" help:"Fetch the remote registry and store it as the local override"`
	Show    CatalogShow    `cmd:"" help:"Print catalog entries with their source and storage details"`
}

func (cr *CatalogRefresh) Run(ctx *cliContext.Context) error {
	store := catalog.NewStore(cr.ConfigDir)
	store.Refresh(cr.URL)

	cat := store.Load()
	fmt.Printf("catalog has %d models (version %s)\n", len(cat.Models), cat.Version)
	return nil
}

func (cs *CatalogShow) Run(ctx *cliContext.Context) error {
	store := catalog.NewStore(cs.ConfigDir)
	cat := store.Load()

	models := cat.Models
	if len(cs.ModelArgs) > 0 {
		models = nil
		for _, id := range cs.ModelArgs {
			entry := cat.Get(id)
			if entry == nil {
				return fmt.Errorf("model %q not found in the catalog", id)
			}
			models = append(models, *entry)
		}
	}

	for _, m := range models {
		fmt.Printf("%s (%s)\n", m.ID, m.Name)
		fmt.Printf("  category: %s\n", m.Category.Label())
		fmt.Printf("  source:   %s", m.Source.Kind)
		if m.Source.Repo != "" {
			fmt.Printf(" %s", m.Source.Repo)
		}
		if m.Source.URL != "" {
			fmt.Printf(" %s", m.Source.URL)
		}
		fmt.Println()
		fmt.Printf("  storage:  %s (%s)\n", m.Storage.ExpandedPath(), m.Storage.SizeDisplay)
		if m.Description != "" {
			fmt.Printf("  %s\n", m.Description)
		}
	}
	return nil
}
