package testdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCases(t *testing.T, dir, folder, file, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, folder), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, folder, file), []byte(content), 0o600))
}

func TestLoaderRead(t *testing.T) {
	dir := t.TempDir()
	writeCases(t, dir, "facebook", "facebook_login_data.json", `{
		"positive": [{"usename": "qa@example.test", "password": "pw1"}],
		"negative": [{"usename": "", "password": ""}, {"usename": "bad@example.test", "password": 12345}]
	}`)
	loader := NewLoader(dir)

	t.Run("extension optional", func(t *testing.T) {
		for _, name := range []string{"facebook_login_data", "facebook_login_data.json"} {
			cases, err := loader.Read("facebook", name)
			require.NoError(t, err)
			require.Len(t, cases.Positive, 1)
			require.Len(t, cases.Negative, 2)
			assert.Equal(t, "qa@example.test", cases.Positive[0].String("usename"))
		}
	})

	t.Run("non string values are rendered", func(t *testing.T) {
		cases, err := loader.Read("facebook", "facebook_login_data")
		require.NoError(t, err)
		assert.Equal(t, "12345", cases.Negative[1].String("password"))
		assert.Equal(t, "", cases.Negative[1].String("absent"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Read("facebook", "nope")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed file", func(t *testing.T) {
		writeCases(t, dir, "broken", "data.json", `{"positive": {}}`)
		_, err := loader.Read("broken", "data")
		assert.Error(t, err)
	})
}

func TestCaseFill(t *testing.T) {
	faker := NewFaker(42)
	original := Case{"usename": "", "password": "from-file", "day": "1"}

	filled := original.Fill(map[string]func() string{
		"usename":  faker.Email,
		"password": faker.Password,
		"phone":    faker.Phone,
	})

	assert.Contains(t, filled.String("usename"), "@")
	assert.NotEqual(t, "from-file", filled.String("password"), "generated values replace file values")
	assert.Len(t, filled.String("password"), 12)
	assert.NotEmpty(t, filled.String("phone"))
	assert.Equal(t, "1", filled.String("day"), "keys without a generator are kept")
	assert.Equal(t, "", original.String("usename"), "the source case is not modified")
	assert.Equal(t, "from-file", original.String("password"))
}

func TestFakerDeterministicWithSeed(t *testing.T) {
	a, b := NewFaker(7), NewFaker(7)
	assert.Equal(t, a.Email(), b.Email())
	assert.Equal(t, a.FirstName(), b.FirstName())
	assert.Len(t, NewFaker(1).Password(), 12)
}
