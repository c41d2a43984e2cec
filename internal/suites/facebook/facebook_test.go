package facebook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/config"
	"github.com/xkilldash9x/uiprobe/internal/pages"
	"github.com/xkilldash9x/uiprobe/internal/testdata"
)

func writeData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, Suite), 0o755))
	files := map[string]string{
		loginDataFile: `{
			"positive": [{"usename": "qa@example.test", "password": "secret"}],
			"negative": [{"usename": "", "password": ""}, {"usename": "", "password": ""}]
		}`,
		signUpDataFile: `{
			"positive": [{"firstname": "Ada", "lastname": "Lovelace", "day": "10", "month": "12", "year": "1990", "mobileNumber": "5550100", "newPassword": "pw"}],
			"negative": [{"day": "1", "month": "1", "year": "2020", "newPassword": "x"}]
		}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, Suite, name), []byte(content), 0o600))
	}
	return dir
}

func TestCases(t *testing.T) {
	cases, err := Cases(testdata.NewLoader(writeData(t)), testdata.NewFaker(1))
	require.NoError(t, err)

	var ids []string
	for _, c := range cases {
		ids = append(ids, c.ID)
		assert.Equal(t, Suite, c.Suite)
		assert.NotNil(t, c.Run)
	}
	assert.Equal(t, []string{
		"facebook/test_valid_login[0]",
		"facebook/test_invalid_login[0]",
		"facebook/test_invalid_login[1]",
		"facebook/test_valid_createUser[0]",
		"facebook/test_invalid_createUser[0]",
	}, ids)

	assert.Equal(t, []string{"smoke", "regression"}, cases[0].Tags)
	assert.True(t, cases[1].HasTag("e2e"))
	assert.False(t, cases[1].HasTag("smoke"))
}

func TestCasesMissingData(t *testing.T) {
	_, err := Cases(testdata.NewLoader(t.TempDir()), testdata.NewFaker(1))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFieldEquals(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Database.Use = config.DBPostgres
	assert.Equal(t, "email='o''brien@example.test'", fieldEquals(cfg, "email", "o'brien@example.test"))

	cfg.Database.Use = config.DBCosmos
	assert.Equal(t, "c.email='qa@example.test'", fieldEquals(cfg, "email", "qa@example.test"))
}

type cleanupEnv struct {
	cfg     *config.Config
	entries [][2]string
}

func (e *cleanupEnv) Deps() pages.Deps       { return pages.Deps{} }
func (e *cleanupEnv) Config() *config.Config { return e.cfg }
func (e *cleanupEnv) Logger() *zap.Logger    { return zap.NewNop() }
func (e *cleanupEnv) AddForCleanup(container, where string) {
	e.entries = append(e.entries, [2]string{container, where})
}

func TestRegisterCleanup(t *testing.T) {
	t.Setenv(customerContainerEnv, "customers")
	t.Setenv(vendorContainerEnv, "vendors")
	t.Setenv(shortStayContainerEnv, "shortstays")
	cfg := config.NewDefaultConfig()
	cfg.Database.Use = config.DBCosmos

	e := &cleanupEnv{cfg: cfg}
	registerCleanup(e, testdata.Case{"usename": "qa@example.test"})
	assert.Equal(t, [][2]string{{"customers", "c.email='qa@example.test'"}}, e.entries)

	e = &cleanupEnv{cfg: cfg}
	registerCleanup(e, testdata.Case{"usename": "qa@example.test", "vendorId": 42, "mobile": "5550100"})
	assert.Equal(t, [][2]string{
		{"customers", "c.email='qa@example.test'"},
		{"vendors", "c.vendorId='42'"},
		{"shortstays", "c.mobile='5550100'"},
	}, e.entries)
}
