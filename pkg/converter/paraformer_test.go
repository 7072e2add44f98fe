package converter_test

import (
	"os"
	"path/filepath"

	. "github.com/OminiX-ai/ominix-hub/pkg/converter"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func writeFile(dir, name, content string) {
	Expect(os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)).To(Succeed())
}

var _ = Describe("Paraformer conversion", func() {
	var srcDir, dstDir string

	BeforeEach(func() {
		var err error
		srcDir, err = os.MkdirTemp("", "paraformer-src")
		Expect(err).ToNot(HaveOccurred())
		dstDir, err = os.MkdirTemp("", "paraformer-dst")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(srcDir)
		os.RemoveAll(dstDir)
	})

	It("is registered under its name", func() {
		conv, err := Get("paraformer")
		Expect(err).ToNot(HaveOccurred())
		Expect(conv.Name()).To(Equal("paraformer"))
	})

	It("rejects unknown converter names", func() {
		_, err := Get("whisper")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("paraformer"))
	})

	It("renames weight files into the runtime layout", func() {
		writeFile(srcDir, "model.pt", "weights")
		writeFile(srcDir, "am.mvn", "cmvn")
		writeFile(srcDir, "config.yaml", "cfg")
		writeFile(srcDir, "README.md", "docs")
		writeFile(srcDir, ".gitattributes", "lfs")

		conv, err := Get("paraformer")
		Expect(err).ToNot(HaveOccurred())
		Expect(conv.Convert(srcDir, dstDir)).To(Succeed())

		Expect(filepath.Join(dstDir, "paraformer.weights")).To(BeARegularFile())
		Expect(filepath.Join(dstDir, "paraformer.cmvn")).To(BeARegularFile())
		Expect(filepath.Join(dstDir, "paraformer.config.yaml")).To(BeARegularFile())
		// unrecognized files are passed through unchanged
		Expect(filepath.Join(dstDir, "README.md")).To(BeARegularFile())
		// dotfiles are not
		Expect(filepath.Join(dstDir, ".gitattributes")).ToNot(BeAnExistingFile())

		data, err := os.ReadFile(filepath.Join(dstDir, "paraformer.weights"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("weights"))
	})

	It("fails when the checkpoint has no weight files", func() {
		writeFile(srcDir, "README.md", "docs")

		conv, err := Get("paraformer")
		Expect(err).ToNot(HaveOccurred())
		Expect(conv.Convert(srcDir, dstDir)).ToNot(Succeed())
	})
})
