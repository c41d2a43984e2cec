package suites

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/uiprobe/internal/testdata"
)

func TestLoadUnknownSuite(t *testing.T) {
	_, err := Load(testdata.NewLoader(t.TempDir()), testdata.NewFaker(1), "billing")
	assert.ErrorContains(t, err, `unknown suite "billing"`)
}

func TestLoadReportsDataErrors(t *testing.T) {
	_, err := Load(testdata.NewLoader(t.TempDir()), testdata.NewFaker(1))
	assert.ErrorContains(t, err, "suite facebook")
}

func TestNames(t *testing.T) {
	assert.Contains(t, Names(), "facebook")
}
