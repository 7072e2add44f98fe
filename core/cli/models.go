package cli

import (
	"fmt"
	"time"

	cliContext "github.com/OminiX-ai/ominix-hub/core/cli/context"
	"github.com/OminiX-ai/ominix-hub/core/cli/signals"

	"github.com/OminiX-ai/ominix-hub/core/catalog"
	"github.com/OminiX-ai/ominix-hub/core/hub"
	"github.com/mudler/xlog"
	"github.com/schollz/progressbar/v3"
)

type ModelsCMDFlags struct {
	ConfigDir string `env:"OMINIX_CONFIG_DIR,CONFIG_DIR" help:"Directory holding the catalog override and the local models file" group:"storage"`
}

type ModelsList struct {
	Category string `help:"Only list models of this category (llm, vlm, asr, tts, image_gen)"`

	ModelsCMDFlags `embed:""`
}

type ModelsSearch struct {
	Query string `arg:"" name:"query" help:"Term to match against model names, descriptions and tags"`

	ModelsCMDFlags `embed:""`
}

type ModelsInstall struct {
	ModelArgs []string `arg:"" name:"models" help:"Model ids to download"`

	ModelsCMDFlags `embed:""`
}

type ModelsRemove struct {
	ModelArgs []string `arg:"" name:"models" help:"Model ids to delete from disk"`

	ModelsCMDFlags `embed:""`
}

type ModelsStatus struct {
	ModelsCMDFlags `embed:""`
}

type ModelsCMD struct {
	List    ModelsList    `cmd:"" help:"List the models available in the catalog" default:"withargs"`
	Search  ModelsSearch  `cmd:"" help:"Search the catalog by name, description or tag"`
	Install ModelsInstall `cmd:"" help:"Download a model to its storage location"`
	Remove  ModelsRemove  `cmd:"" help:"Delete a downloaded model from disk"`
	Status  ModelsStatus  `cmd:"" help:"Show the on-disk status of every model"`
}

func openHub(configDir string) (*catalog.Catalog, *catalog.LocalConfig, *hub.Service) {
	store := catalog.NewStore(configDir)
	cat := store.Load()
	local := catalog.LoadLocalConfig(store.ConfigDir(), cat)
	service := hub.NewService(local)
	service.StartupScan()
	return cat, local, service
}

func printModels(local *catalog.LocalConfig, models []catalog.Entry) {
	for _, m := range models {
		status := catalog.StatusNotDownloaded
		if lm := local.Get(m.ID); lm != nil {
			status = lm.Status
		}
		if status == catalog.StatusReady {
			fmt.Printf(" * %s (%s) [%s]\n", m.ID, m.Name, status.Label())
		} else {
			fmt.Printf(" - %s (%s) [%s]\n", m.ID, m.Name, status.Label())
		}
	}
}

func (ml *ModelsList) Run(ctx *cliContext.Context) error {
	cat, local, _ := openHub(ml.ConfigDir)

	models := cat.Models
	if ml.Category != "" {
		models = cat.ByCategory(catalog.Category(ml.Category))
	}
	printModels(local, models)
	return nil
}

func (ms *ModelsSearch) Run(ctx *cliContext.Context) error {
	cat, local, _ := openHub(ms.ConfigDir)

	printModels(local, cat.Search(ms.Query))
	return nil
}

func (mi *ModelsInstall) Run(ctx *cliContext.Context) error {
	cat, local, service := openHub(mi.ConfigDir)

	for _, modelID := range mi.ModelArgs {
		entry := cat.Get(modelID)
		if entry == nil {
			return fmt.Errorf("model %q not found in the catalog", modelID)
		}

		if _, err := service.Start(*entry); err != nil {
			return err
		}
		signals.Handler(service, modelID)

		progressBar := progressbar.NewOptions(
			1000,
			progressbar.OptionSetDescription(fmt.Sprintf("downloading model %s", modelID)),
			progressbar.OptionShowBytes(false),
			progressbar.OptionClearOnFinish(),
		)

		ticker := time.NewTicker(200 * time.Millisecond)
		for range ticker.C {
			result := service.Poll()
			for _, snap := range result.Snapshots {
				if snap.ModelID != modelID {
					continue
				}
				if err := progressBar.Set(int(snap.Fraction * 1000)); err != nil {
					xlog.Error("error while updating progress bar", "error", err, "file", snap.CurrentFile)
				}
			}
			if !result.Again {
				break
			}
		}
		ticker.Stop()

		lm := local.Get(modelID)
		if lm == nil {
			return fmt.Errorf("model %q vanished from the local config", modelID)
		}
		switch lm.Status {
		case catalog.StatusReady:
			fmt.Printf("model %s installed at %s\n", modelID, entry.Storage.ExpandedPath())
		case catalog.StatusError:
			return fmt.Errorf("failed to install model %q: %s", modelID, lm.ErrorMessage)
		default:
			fmt.Printf("download of model %s was cancelled\n", modelID)
		}
	}
	return nil
}

func (mr *ModelsRemove) Run(ctx *cliContext.Context) error {
	cat, _, service := openHub(mr.ConfigDir)

	for _, modelID := range mr.ModelArgs {
		entry := cat.Get(modelID)
		if entry == nil {
			return fmt.Errorf("model %q not found in the catalog", modelID)
		}
		service.Cancel(modelID)
		if err := service.Remove(*entry); err != nil {
			return err
		}
		fmt.Printf("model %s removed from %s\n", modelID, entry.Storage.ExpandedPath())
	}
	return nil
}

func (ms *ModelsStatus) Run(ctx *cliContext.Context) error {
	_, local, _ := openHub(ms.ConfigDir)

	for _, lm := range local.Models {
		line := fmt.Sprintf(" %s: %s", lm.ID, lm.Status.Label())
		if lm.Status == catalog.StatusError && lm.ErrorMessage != "" {
			line += " (" + lm.ErrorMessage + ")"
		}
		fmt.Println(line)
	}
	return nil
}
