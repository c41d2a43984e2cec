// Package facebook holds the data driven login and sign up tests.
package facebook

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/config"
	"github.com/xkilldash9x/uiprobe/internal/pages"
	"github.com/xkilldash9x/uiprobe/internal/session"
	"github.com/xkilldash9x/uiprobe/internal/testdata"
)

const (
	Suite = "facebook"

	loginDataFile  = "facebook_login_data.json"
	signUpDataFile = "facebook_createuser_data.json"

	// Containers registered for cleanup after a login, as named in the env file.
	customerContainerEnv  = "COSMOS_DB_CUSTOMER_CONTAINER"
	vendorContainerEnv    = "COSMOS_DB_VENDOR_CONTAINER"
	shortStayContainerEnv = "COSMOS_DB_SHORTSTAY_CONTAINER"
)

// env is what a test body needs from the running session.
type env interface {
	Deps() pages.Deps
	Config() *config.Config
	Logger() *zap.Logger
	AddForCleanup(container, where string)
}

// Cases reads the data files and returns one test per record.
func Cases(loader *testdata.Loader, faker *testdata.Faker) ([]session.TestCase, error) {
	login, err := loader.Read(Suite, loginDataFile)
	if err != nil {
		return nil, err
	}
	signUp, err := loader.Read(Suite, signUpDataFile)
	if err != nil {
		return nil, err
	}

	var out []session.TestCase
	add := func(name string, tags []string, records []testdata.Case, body func(env, testdata.Case) error, gen map[string]func() string) {
		for i, rec := range records {
			if gen != nil {
				rec = rec.Fill(gen)
			}
			out = append(out, session.TestCase{
				ID:    fmt.Sprintf("%s/%s[%d]", Suite, name, i),
				Name:  name,
				Suite: Suite,
				Tags:  tags,
				Run:   func(t *session.T) error { return body(t, rec) },
			})
		}
	}

	smokeRegression := []string{"smoke", "regression"}
	add("test_valid_login", smokeRegression, login.Positive, validLogin, nil)
	add("test_invalid_login", []string{"e2e"}, login.Negative, invalidLogin, map[string]func() string{
		"usename":  faker.Email,
		"password": faker.Password,
	})
	add("test_valid_createUser", smokeRegression, signUp.Positive, createUser, nil)
	add("test_invalid_createUser", smokeRegression, signUp.Negative, createUser, map[string]func() string{
		"firstname":    faker.FirstName,
		"lastname":     faker.LastName,
		"mobileNumber": faker.Phone,
	})
	return out, nil
}

func login(e env, c testdata.Case) error {
	page, err := pages.NewFacebookLoginPage(e.Deps(), e.Config().App.BaseURL)
	if err != nil {
		return err
	}
	if err := page.Login(c.String("usename"), c.String("password")); err != nil {
		return err
	}
	return page.WaitForNetworkIdle(0)
}

func validLogin(e env, c testdata.Case) error {
	if err := login(e, c); err != nil {
		return err
	}
	registerCleanup(e, c)
	return nil
}

// registerCleanup queues the records a login leaves behind.
func registerCleanup(e env, c testdata.Case) {
	e.AddForCleanup(os.Getenv(customerContainerEnv), fieldEquals(e.Config(), "email", c.String("usename")))
	// Vendor and short stay records only exist for accounts whose data names them.
	if v := c.String("vendorId"); v != "" {
		e.AddForCleanup(os.Getenv(vendorContainerEnv), fieldEquals(e.Config(), "vendorId", v))
	}
	if m := c.String("mobile"); m != "" {
		e.AddForCleanup(os.Getenv(shortStayContainerEnv), fieldEquals(e.Config(), "mobile", m))
	}
}

func invalidLogin(e env, c testdata.Case) error {
	e.Logger().Info("Trying generated credentials", zap.String("email", c.String("usename")))
	return login(e, c)
}

func createUser(e env, c testdata.Case) error {
	page, err := pages.NewFacebookCreateUserPage(e.Deps())
	if err != nil {
		return err
	}
	if err := page.Navigate(e.Config().App.BaseURL); err != nil {
		return err
	}
	if err := page.OpenSignUp(); err != nil {
		return err
	}
	err = page.RegisterNewUser(pages.NewUser{
		FirstName: c.String("firstname"),
		LastName:  c.String("lastname"),
		Day:       c.String("day"),
		Month:     c.String("month"),
		Year:      c.String("year"),
		Mobile:    c.String("mobileNumber"),
		Password:  c.String("newPassword"),
	})
	if err != nil {
		return err
	}
	if err := page.WaitForNetworkIdle(0); err != nil {
		return err
	}
	return page.SubmitSignUp()
}

// fieldEquals renders an equality filter for the selected backend. Cosmos
// queries address fields through the c alias.
func fieldEquals(cfg *config.Config, field, value string) string {
	if cfg.Database.Use == config.DBCosmos {
		field = "c." + field
	}
	return fmt.Sprintf("%s='%s'", field, strings.ReplaceAll(value, "'", "''"))
}
