// Package suites registers every test suite the runner knows.
package suites

import (
	"fmt"

	"github.com/xkilldash9x/uiprobe/internal/session"
	"github.com/xkilldash9x/uiprobe/internal/suites/facebook"
	"github.com/xkilldash9x/uiprobe/internal/testdata"
)

// builder produces the cases of one suite from the data directory.
type builder func(*testdata.Loader, *testdata.Faker) ([]session.TestCase, error)

var registry = []struct {
	name  string
	build builder
}{
	{facebook.Suite, facebook.Cases},
}

// Names lists the registered suites.
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, r := range registry {
		out = append(out, r.name)
	}
	return out
}

// Load builds the cases of the named suites, or of every suite when names is empty.
func Load(loader *testdata.Loader, faker *testdata.Faker, names ...string) ([]session.TestCase, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []session.TestCase
	for _, r := range registry {
		if len(want) > 0 && !want[r.name] {
			continue
		}
		delete(want, r.name)
		cases, err := r.build(loader, faker)
		if err != nil {
			return nil, fmt.Errorf("suite %s: %w", r.name, err)
		}
		out = append(out, cases...)
	}
	for n := range want {
		return nil, fmt.Errorf("unknown suite %q, known suites are %v", n, Names())
	}
	return out, nil
}
