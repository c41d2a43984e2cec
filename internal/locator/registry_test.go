package locator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestElementFileName(t *testing.T) {
	assert.Equal(t, "facebooklogin_page.json", ElementFileName("FacebookLoginPage"))
	assert.Equal(t, "facebookcreateuser_page.json", ElementFileName("FacebookCreateUserPage"))
	assert.Equal(t, "checkout_page.json", ElementFileName("Checkout"))
}

func TestDescriptorUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Descriptor
	}{
		{"bare string", `"#email"`, Descriptor{Strategy: StrategyCSS, Value: "#email", Bare: true}},
		{"missing type defaults to css", `{"value": "div"}`, Descriptor{Strategy: StrategyCSS, Value: "div"}},
		{"type is case insensitive", `{"type": "TestId", "value": "x"}`, Descriptor{Strategy: StrategyTestID, Value: "x"}},
		{"role", `{"type": "role", "role": "button", "value": "Log In"}`, ByRole("button", "Log In")},
		{"unknown type kept", `{"type": "xpath", "value": "//a"}`, Descriptor{Strategy: "xpath", Value: "//a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Descriptor
			require.NoError(t, json.Unmarshal([]byte(tt.in), &d))
			if diff := cmp.Diff(tt.want, d); diff != "" {
				t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("rejects numbers", func(t *testing.T) {
		var d Descriptor
		assert.Error(t, json.Unmarshal([]byte(`42`), &d))
	})
}

func TestStrategyKnown(t *testing.T) {
	assert.True(t, StrategyPlaceholder.Known())
	assert.True(t, StrategyCSS.Known())
	assert.False(t, Strategy("xpath").Known())
}

func TestLoad(t *testing.T) {
	t.Run("reads the derived file", func(t *testing.T) {
		dir := t.TempDir()
		content := `{"email": "#email", "loginButton": {"type": "role", "role": "button", "value": "Log In"}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "facebooklogin_page.json"), []byte(content), 0o600))

		reg, err := Load(dir, "FacebookLoginPage")
		require.NoError(t, err)
		assert.Equal(t, "FacebookLoginPage", reg.Page())
		assert.Equal(t, filepath.Join(dir, "facebooklogin_page.json"), reg.Source())
		assert.Equal(t, []string{"email", "loginButton"}, reg.Keys())
		assert.NoError(t, reg.Require("email", "loginButton"))

		err = reg.Require("email", "nope")
		assert.ErrorIs(t, err, ErrLookup)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir(), "GhostPage")
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken_page.json"), []byte(`{"a": [1,2]}`), 0o600))
		_, err := Load(dir, "BrokenPage")
		assert.Error(t, err)
	})
}

func TestNewCopiesEntries(t *testing.T) {
	entries := map[string]Descriptor{"a": CSS("#a")}
	reg := New("P", entries)
	entries["b"] = CSS("#b")

	_, err := reg.Lookup("b")
	assert.ErrorIs(t, err, ErrLookup)
}

// -- Fuzz Testing --

// FuzzDescriptorValidate checks that validation and resolution agree for arbitrary descriptors.
func FuzzDescriptorValidate(f *testing.F) {
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		var d Descriptor
		if err := consumer.GenerateStruct(&d); err != nil {
			return
		}

		finder := &fakeFinder{}
		r := NewResolver(finder, New("FuzzPage", map[string]Descriptor{"k": d}), zap.NewNop())
		loc, err := r.Resolve("k")
		if err != nil {
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			if finder.calls != 0 {
				t.Fatalf("validation failure touched the page")
			}
			return
		}
		if loc == nil {
			t.Fatalf("nil locator without error for %+v", d)
		}
	})
}

func FuzzDescriptorUnmarshal(f *testing.F) {
	f.Add([]byte(`"#id"`))
	f.Add([]byte(`{"type":"role","role":"button","value":"Go"}`))
	f.Add([]byte(`{"type":"","value":""}`))
	f.Fuzz(func(t *testing.T, data []byte) {
		var d Descriptor
		if err := json.Unmarshal(data, &d); err != nil {
			return
		}
		if d.Bare && d.Strategy != StrategyCSS {
			t.Fatalf("bare descriptor decoded as %q from %q", d.Strategy, data)
		}
	})
}
