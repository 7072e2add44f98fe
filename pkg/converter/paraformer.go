package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mudler/xlog"
	cp "github.com/otiai10/copy"
)

func init() {
	Register(&paraformer{})
}

// paraformer rearranges a FunASR Paraformer checkpoint into the layout the
// runtime loads: weight files are renamed into the runtime scheme,
// supporting assets (configs, vocabularies, frontend resources) are copied
// through unchanged.
type paraformer struct{}

// weightNames maps checkpoint weight files to their runtime names.
var weightNames = map[string]string{
	"model.pt":           "paraformer.weights",
	"model.pb":           "paraformer.weights",
	"model.onnx":         "paraformer.weights",
	"am.mvn":             "paraformer.cmvn",
	"seg_dict":           "paraformer.seg_dict",
	"tokens.json":        "paraformer.tokens.json",
	"config.yaml":        "paraformer.config.yaml",
	"configuration.json": "paraformer.configuration.json",
}

func (p *paraformer) Name() string { return "paraformer" }

func (p *paraformer) Convert(srcDir, dstDir string) error {
	if err := os.MkdirAll(dstDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory %q: %w", dstDir, err)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("failed to read staging directory %q: %w", srcDir, err)
	}

	converted := 0
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		src := filepath.Join(srcDir, name)

		if mapped, ok := weightNames[name]; ok {
			if err := cp.Copy(src, filepath.Join(dstDir, mapped)); err != nil {
				return fmt.Errorf("failed to convert %q: %w", name, err)
			}
			converted++
			continue
		}
		if err := cp.Copy(src, filepath.Join(dstDir, name)); err != nil {
			return fmt.Errorf("failed to copy %q: %w", name, err)
		}
	}

	if converted == 0 {
		return fmt.Errorf("no recognizable weight files in %q", srcDir)
	}
	xlog.Info("paraformer checkpoint converted", "files", converted, "output", dstDir)
	return nil
}
