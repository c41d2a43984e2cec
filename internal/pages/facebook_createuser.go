package pages

import "go.uber.org/zap"

// Element keys of facebookcreateuser_page.json.
const (
	keyCreateUserButton = "createUserbutton"
	keyFirstName        = "firstname"
	keyLastName         = "lastname"
	keyDay              = "day"
	keyMonth            = "month"
	keyYear             = "year"
	keyFemale           = "female"
	keyMobile           = "mobile"
	keyNewPassword      = "Newpassword"
	keySignUpButton     = "signUpButton"
)

// NewUser is the registration form input.
type NewUser struct {
	FirstName string
	LastName  string
	Day       string
	Month     string
	Year      string
	Mobile    string
	Password  string
}

// FacebookCreateUserPage drives the sign up dialog.
type FacebookCreateUserPage struct {
	*Actions
	logger *zap.Logger
}

// NewFacebookCreateUserPage loads the sign up element map.
func NewFacebookCreateUserPage(deps Deps) (*FacebookCreateUserPage, error) {
	actions, err := deps.compose("FacebookCreateUserPage",
		keyCreateUserButton, keyFirstName, keyLastName, keyDay, keyMonth,
		keyYear, keyFemale, keyMobile, keyNewPassword, keySignUpButton)
	if err != nil {
		return nil, err
	}
	return &FacebookCreateUserPage{Actions: actions, logger: actions.logger}, nil
}

// OpenSignUp opens the registration dialog.
func (p *FacebookCreateUserPage) OpenSignUp() error {
	return p.Click(keyCreateUserButton)
}

// RegisterNewUser fills every registration field in form order.
func (p *FacebookCreateUserPage) RegisterNewUser(u NewUser) error {
	p.logger.Info("Registering new user", zap.String("first_name", u.FirstName), zap.String("last_name", u.LastName))
	steps := []func() error{
		func() error { return p.Click(keyFirstName) },
		func() error { return p.EnterText(keyFirstName, u.FirstName) },
		func() error { return p.Click(keyLastName) },
		func() error { return p.EnterText(keyLastName, u.LastName) },
		func() error { return p.SelectDropdown(keyDay, u.Day) },
		func() error { return p.SelectDropdown(keyMonth, u.Month) },
		func() error { return p.SelectDropdown(keyYear, u.Year) },
		func() error { return p.Click(keyFemale) },
		func() error { return p.Click(keyMobile) },
		func() error { return p.EnterText(keyMobile, u.Mobile) },
		func() error { return p.Click(keyNewPassword) },
		func() error { return p.EnterText(keyNewPassword, u.Password) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// SubmitSignUp clicks the sign up button.
func (p *FacebookCreateUserPage) SubmitSignUp() error {
	return p.Click(keySignUpButton)
}
