package shell_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pku-liang/hestia/shell"
)

const softwareBundle = `{
	"level": "software",
	"functions": [
		{
			"name": "add2",
			"args": ["x", "y"],
			"body": [
				{"op_type": "add", "name": "r", "operands": ["x", "y"]},
				{"op_type": "return", "operands": ["r"]}
			]
		}
	]
}`

func writeTemp(dir, name, content string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	return path
}

var _ = Describe("shell", func() {
	It("loads a software bundle, calls a function, and steps it to completion", func() {
		dir, err := os.MkdirTemp("", "shell-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		path := writeTemp(dir, "add2.json", softwareBundle)

		var out strings.Builder
		sh := shell.New(&out)

		Expect(sh.RunScript([]string{
			"load " + path,
			"call add2 2 3",
			"continue",
		})).To(Succeed())

		Expect(sh.Software.Returns).To(HaveLen(1))
		Expect(sh.Software.Returns[0][0].AsI32()).To(Equal(int32(5)))
		Expect(out.String()).To(ContainSubstring("add2 returned 5"))
	})

	It("prints a diagnostic and keeps running on an unknown verb", func() {
		var out strings.Builder
		sh := shell.New(&out)

		Expect(sh.Exec("frobnicate something")).To(Succeed())
		Expect(out.String()).To(ContainSubstring(`unknown command "frobnicate"`))
	})

	It("returns an error from RunScript when a load path doesn't exist", func() {
		var out strings.Builder
		sh := shell.New(&out)

		err := sh.RunScript([]string{"load /no/such/file.json"})
		Expect(err).To(HaveOccurred())
	})

	It("stops a breakpointed step before the breakpointed op executes", func() {
		dir, err := os.MkdirTemp("", "shell-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		path := writeTemp(dir, "add2.json", softwareBundle)

		var out strings.Builder
		sh := shell.New(&out)

		Expect(sh.RunScript([]string{
			"load " + path,
			"breakpoint r",
			"call add2 2 3",
			"step 5",
		})).To(Succeed())

		Expect(sh.Software.Returns).To(BeEmpty())
		Expect(out.String()).To(ContainSubstring(`breakpoint "r" hit`))

		Expect(sh.Exec("unset_breakpoint r")).To(Succeed())
		Expect(sh.Exec("continue")).To(Succeed())
		Expect(sh.Software.Returns).To(HaveLen(1))
	})
})
