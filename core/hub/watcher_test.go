package hub_test

import (
	"os"
	"path/filepath"

	"github.com/OminiX-ai/ominix-hub/core/catalog"
	. "github.com/OminiX-ai/ominix-hub/core/hub"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func persistedStatus(dir string, cat *catalog.Catalog, id string) catalog.Status {
	row := catalog.LoadLocalConfig(dir, cat).Get(id)
	if row == nil {
		return ""
	}
	return row.Status
}

var _ = Describe("Storage watcher", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "watcher-test")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("rescans a model when its directory appears out of band", func() {
		storage := filepath.Join(dir, "models", "tiny")
		Expect(os.MkdirAll(filepath.Dir(storage), 0750)).To(Succeed())

		entry := hubEntry("tiny", catalog.Source{
			Kind: catalog.SourceHuggingFace, Repo: "acme/tiny", URL: "https://huggingface.co",
		}, storage)
		service, _ := newHub(dir, entry)

		cat := &catalog.Catalog{Models: []catalog.Entry{entry}}
		watcher, err := NewWatcher(service, cat)
		Expect(err).ToNot(HaveOccurred())
		defer watcher.Close()
		watcher.Start()

		Expect(os.MkdirAll(storage, 0750)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(storage, "model.gguf"), []byte("w"), 0644)).To(Succeed())

		// observe the persisted document, not the shared in-memory state
		Eventually(func() catalog.Status { return persistedStatus(dir, cat, "tiny") }, "5s", "50ms").
			Should(Equal(catalog.StatusReady))
	})

	It("rescans a model when its directory is deleted", func() {
		storage := filepath.Join(dir, "models", "tiny")
		Expect(os.MkdirAll(storage, 0750)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(storage, "model.gguf"), []byte("w"), 0644)).To(Succeed())

		entry := hubEntry("tiny", catalog.Source{
			Kind: catalog.SourceHuggingFace, Repo: "acme/tiny", URL: "https://huggingface.co",
		}, storage)
		service, local := newHub(dir, entry)
		service.StartupScan()
		Expect(local.Get("tiny").Status).To(Equal(catalog.StatusReady))

		cat := &catalog.Catalog{Models: []catalog.Entry{entry}}
		watcher, err := NewWatcher(service, cat)
		Expect(err).ToNot(HaveOccurred())
		defer watcher.Close()
		watcher.Start()

		Expect(os.RemoveAll(storage)).To(Succeed())

		Eventually(func() catalog.Status { return persistedStatus(dir, cat, "tiny") }, "5s", "50ms").
			Should(Equal(catalog.StatusNotDownloaded))
	})
})
