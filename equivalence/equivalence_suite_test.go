package equivalence_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEquivalence(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Equivalence Suite")
}
