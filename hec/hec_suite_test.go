package hec_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestHec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "HEC Suite")
}
