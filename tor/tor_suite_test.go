package tor_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTor(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ToR Suite")
}
