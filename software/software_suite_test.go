package software_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSoftware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Software Suite")
}
