package pages

import "go.uber.org/zap"

// Element keys of facebooklogin_page.json.
const (
	keyEmail       = "email"
	keyPassword    = "password"
	keyLoginButton = "loginButton"
)

// FacebookLoginPage drives the login form.
type FacebookLoginPage struct {
	*Actions
	baseURL string
	logger  *zap.Logger
}

// NewFacebookLoginPage loads the login element map.
func NewFacebookLoginPage(deps Deps, baseURL string) (*FacebookLoginPage, error) {
	actions, err := deps.compose("FacebookLoginPage", keyEmail, keyPassword, keyLoginButton)
	if err != nil {
		return nil, err
	}
	return &FacebookLoginPage{Actions: actions, baseURL: baseURL, logger: actions.logger}, nil
}

// NavigateToFacebook opens the base URL.
func (p *FacebookLoginPage) NavigateToFacebook() error {
	return p.Navigate(p.baseURL)
}

// EnterCredentials fills the email and password fields.
func (p *FacebookLoginPage) EnterCredentials(email, password string) error {
	p.logger.Info("Entering credentials", zap.String("email", email))
	if err := p.EnterText(keyEmail, email); err != nil {
		return err
	}
	return p.EnterText(keyPassword, password)
}

// ClickLoginButton submits the form.
func (p *FacebookLoginPage) ClickLoginButton() error {
	return p.Click(keyLoginButton)
}

// Login is the full sign in flow.
func (p *FacebookLoginPage) Login(email, password string) error {
	if err := p.NavigateToFacebook(); err != nil {
		return err
	}
	if err := p.EnterCredentials(email, password); err != nil {
		return err
	}
	return p.ClickLoginButton()
}
