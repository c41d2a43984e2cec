package browser

import (
	"fmt"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/uiprobe/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Capabilities returns the capability set sent to a grid for the named run.
// Local runs only carry the base fields and the viewport.
func Capabilities(cfg *config.Config, name string) map[string]interface{} {
	viewport := map[string]int{
		"width":  cfg.Browser.Viewport.Width,
		"height": cfg.Browser.Viewport.Height,
	}
	caps := map[string]interface{}{
		"name":     name,
		"build":    cfg.Cloud.Build,
		"project":  cfg.Cloud.Project,
		"viewport": viewport,
	}

	switch cfg.Cloud.Provider {
	case config.CloudBrowserStack:
		caps["browserName"] = "chrome"
		caps["os"] = "Windows"
		caps["osVersion"] = "11"
		caps["browserVersion"] = "latest"
		caps["client.playwrightVersion"] = cfg.Cloud.PlaywrightVersion
		caps["browserstack.username"] = cfg.Cloud.BrowserStack.Username
		caps["browserstack.accessKey"] = cfg.Cloud.BrowserStack.AccessKey
	case config.CloudLambdaTest:
		caps["platform"] = "Windows 11"
		caps["browserName"] = "Chrome"
		caps["version"] = "latest"
		caps["selenium_version"] = "4.8.0"
		caps["pw:version"] = cfg.Cloud.PlaywrightVersion
		caps["LT_USERNAME"] = cfg.Cloud.LambdaTest.Username
		caps["LT_ACCESS_KEY"] = cfg.Cloud.LambdaTest.AccessKey
	}
	return caps
}

// Endpoint builds the grid WebSocket URL with the capabilities as an escaped
// JSON query parameter.
func Endpoint(cfg *config.Config, caps map[string]interface{}) (string, error) {
	var base, param string
	switch cfg.Cloud.Provider {
	case config.CloudBrowserStack:
		base, param = cfg.Cloud.BrowserStack.Endpoint, "caps"
	case config.CloudLambdaTest:
		base, param = cfg.Cloud.LambdaTest.Endpoint, "capabilities"
	default:
		return "", fmt.Errorf("provider %q has no grid endpoint", cfg.Cloud.Provider)
	}

	encoded, err := json.Marshal(caps)
	if err != nil {
		return "", fmt.Errorf("failed to encode capabilities: %w", err)
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + param + "=" + url.QueryEscape(string(encoded)), nil
}

// Redact hides grid secrets inside an endpoint so it can be logged.
func Redact(endpoint string, secrets ...string) string {
	for _, s := range secrets {
		if s == "" {
			continue
		}
		// Secrets appear JSON encoded and then query escaped.
		encoded, err := json.Marshal(s)
		if err != nil {
			continue
		}
		inner := string(encoded[1 : len(encoded)-1])
		endpoint = strings.ReplaceAll(endpoint, url.QueryEscape(inner), "REDACTED")
	}
	return endpoint
}
