package catalog_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	catalog "github.com/OminiX-ai/ominix-hub/core/catalog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func entryDoc(id, name string, tags ...string) catalog.Entry {
	return catalog.Entry{
		ID:       id,
		Name:     name,
		Category: catalog.CategoryLLM,
		Tags:     tags,
		Source:   catalog.Source{Kind: catalog.SourceHuggingFace, Repo: "acme/" + id, URL: "https://huggingface.co"},
		Storage:  catalog.Storage{LocalPath: "~/.ominix/models/" + id},
	}
}

var _ = Describe("Catalog", func() {
	Context("merging documents", func() {
		It("replaces known entries wholesale", func() {
			base := &catalog.Catalog{Version: "1.0.0", Models: []catalog.Entry{
				entryDoc("qwen3-8b", "Qwen3 8B", "chat", "reasoning"),
				entryDoc("kokoro-tts", "Kokoro TTS"),
			}}
			incoming := &catalog.Catalog{Version: "1.1.0", Models: []catalog.Entry{
				entryDoc("qwen3-8b", "Qwen3 8B (updated)"),
			}}

			base.Merge(incoming)

			got := base.Get("qwen3-8b")
			Expect(got).ToNot(BeNil())
			Expect(got.Name).To(Equal("Qwen3 8B (updated)"))
			// the old entry's tags do not leak into the replacement
			Expect(got.Tags).To(BeEmpty())
			Expect(base.Version).To(Equal("1.1.0"))
			Expect(base.Models).To(HaveLen(2))
		})

		It("appends unknown entries", func() {
			base := &catalog.Catalog{Models: []catalog.Entry{entryDoc("qwen3-8b", "Qwen3 8B")}}
			incoming := &catalog.Catalog{Models: []catalog.Entry{entryDoc("flux-klein-4b", "FLUX Klein 4B")}}

			base.Merge(incoming)

			Expect(base.Models).To(HaveLen(2))
			Expect(base.Get("flux-klein-4b")).ToNot(BeNil())
		})

		It("keeps the current version when the incoming one is empty", func() {
			base := &catalog.Catalog{Version: "1.0.0"}
			base.Merge(&catalog.Catalog{})
			Expect(base.Version).To(Equal("1.0.0"))
		})
	})

	Context("store loading", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "catalog-test")
			Expect(err).ToNot(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(dir)
		})

		It("serves the bundled defaults when no override exists", func() {
			cat := catalog.NewStore(dir).Load()
			Expect(cat.Models).ToNot(BeEmpty())
			Expect(cat.Get("qwen3-8b")).ToNot(BeNil())
		})

		It("merges a saved override on top of the bundled defaults", func() {
			store := catalog.NewStore(dir)
			base := store.Load()

			override := &catalog.Catalog{Version: "9.9.9", Models: []catalog.Entry{
				entryDoc("qwen3-8b", "Qwen3 8B (override)"),
				entryDoc("new-model", "Brand New Model"),
			}}
			Expect(store.SaveOverride(override)).To(Succeed())

			cat := store.Load()
			Expect(cat.Version).To(Equal("9.9.9"))
			Expect(cat.Get("qwen3-8b").Name).To(Equal("Qwen3 8B (override)"))
			Expect(cat.Get("new-model")).ToNot(BeNil())
			Expect(len(cat.Models)).To(Equal(len(base.Models) + 1))
		})

		It("ignores an unparseable override", func() {
			store := catalog.NewStore(dir)
			Expect(os.MkdirAll(dir, 0750)).To(Succeed())
			Expect(os.WriteFile(store.OverridePath(), []byte("{not json"), 0644)).To(Succeed())

			cat := store.Load()
			Expect(cat.Get("qwen3-8b")).ToNot(BeNil(), "bundled defaults must stand alone")
		})
	})

	Context("remote refresh", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "catalog-refresh-test")
			Expect(err).ToNot(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(dir)
		})

		It("stores the fetched document as the override", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"version":"2.0.0","models":[{"id":"remote-model","name":"Remote Model","category":"llm","source":{"kind":"huggingface","repo":"acme/remote","url":"https://huggingface.co"},"storage":{"local_path":"~/.ominix/models/remote"}}]}`)
			}))
			defer server.Close()

			store := catalog.NewStore(dir)
			store.Refresh(server.URL)

			cat := store.Load()
			Expect(cat.Version).To(Equal("2.0.0"))
			Expect(cat.Get("remote-model")).ToNot(BeNil())
		})

		It("leaves the override untouched on server errors", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			store := catalog.NewStore(dir)
			store.Refresh(server.URL)

			_, err := os.Stat(store.OverridePath())
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("rejects malformed remote documents", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "not a catalog")
			}))
			defer server.Close()

			store := catalog.NewStore(dir)
			store.Refresh(server.URL)

			_, err := os.Stat(store.OverridePath())
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Context("parsing documents", func() {
		It("decodes YAML documents by extension", func() {
			doc := []byte("version: \"3.0.0\"\nmodels:\n  - id: yaml-model\n    name: YAML Model\n    category: tts\n")
			cat, err := catalog.ParseDocument(doc, "registry.yaml")
			Expect(err).ToNot(HaveOccurred())
			Expect(cat.Version).To(Equal("3.0.0"))
			Expect(cat.Get("yaml-model").Category).To(Equal(catalog.CategoryTTS))
		})

		It("never returns a nil model list", func() {
			cat, err := catalog.ParseDocument([]byte(`{"version":"1.0.0"}`), "registry.json")
			Expect(err).ToNot(HaveOccurred())
			Expect(cat.Models).ToNot(BeNil())
		})
	})

	Context("searching", func() {
		cat := &catalog.Catalog{Models: []catalog.Entry{
			{ID: "qwen3-8b", Name: "Qwen3 8B", Description: "Reasoning chat model", Category: catalog.CategoryLLM, Tags: []string{"chat"}},
			{ID: "kokoro-tts", Name: "Kokoro", Description: "Text to speech", Category: catalog.CategoryTTS, Tags: []string{"voice"}},
		}}

		It("matches names case-insensitively", func() {
			Expect(cat.Search("QWEN")).To(HaveLen(1))
		})

		It("matches descriptions and tags", func() {
			Expect(cat.Search("speech")).To(HaveLen(1))
			Expect(cat.Search("voice")).To(HaveLen(1))
		})

		It("returns nothing for unknown terms", func() {
			Expect(cat.Search("nonexistent-model-term")).To(BeEmpty())
		})

		It("filters by category", func() {
			Expect(cat.ByCategory(catalog.CategoryTTS)).To(HaveLen(1))
		})
	})

	Context("path expansion", func() {
		It("resolves the home prefix", func() {
			home, err := os.UserHomeDir()
			Expect(err).ToNot(HaveOccurred())
			Expect(catalog.ExpandPath("~/.ominix/models/x")).To(Equal(filepath.Join(home, ".ominix/models/x")))
		})

		It("leaves absolute paths alone", func() {
			Expect(catalog.ExpandPath("/var/models/x")).To(Equal("/var/models/x"))
		})
	})
})
