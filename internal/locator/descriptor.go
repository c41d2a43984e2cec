// Package locator maps symbolic element keys to live playwright locators.
package locator

import (
	"bytes"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Strategy names how a descriptor is resolved against the page.
type Strategy string

const (
	StrategyCSS         Strategy = "css"
	StrategyTestID      Strategy = "testid"
	StrategyRole        Strategy = "role"
	StrategyText        Strategy = "text"
	StrategyLabel       Strategy = "label"
	StrategyTitle       Strategy = "title"
	StrategyAlt         Strategy = "alt"
	StrategyPlaceholder Strategy = "placeholder"
)

// Known reports whether s has a dedicated resolution rule.
func (s Strategy) Known() bool {
	switch s {
	case StrategyCSS, StrategyTestID, StrategyRole, StrategyText,
		StrategyLabel, StrategyTitle, StrategyAlt, StrategyPlaceholder:
		return true
	}
	return false
}

// Descriptor is one entry of an element file.
//
// Element files accept either a bare string, which is a CSS or XPath
// selector, or an object:
//
//	{"type": "role", "role": "button", "value": "Log In"}
//
// An object without a type is a CSS selector. Types with no dedicated rule
// are kept as written and resolved as raw selectors.
type Descriptor struct {
	Strategy Strategy `json:"type"`
	Value    string   `json:"value"`
	Role     string   `json:"role,omitempty"`
	// Bare is set for the legacy string form.
	Bare bool `json:"-"`
}

// CSS builds a selector descriptor.
func CSS(selector string) Descriptor {
	return Descriptor{Strategy: StrategyCSS, Value: selector}
}

// ByRole builds a role descriptor; name is the accessible name.
func ByRole(role, name string) Descriptor {
	return Descriptor{Strategy: StrategyRole, Role: role, Value: name}
}

// UnmarshalJSON accepts both the bare string and the object form.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var selector string
		if err := json.Unmarshal(trimmed, &selector); err != nil {
			return err
		}
		*d = Descriptor{Strategy: StrategyCSS, Value: selector, Bare: true}
		return nil
	}

	var raw struct {
		Type  string `json:"type"`
		Value string `json:"value"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("descriptor must be a string or an object: %w", err)
	}

	strategy := Strategy(strings.ToLower(strings.TrimSpace(raw.Type)))
	if strategy == "" {
		strategy = StrategyCSS
	}
	*d = Descriptor{Strategy: strategy, Value: raw.Value, Role: raw.Role}
	return nil
}

// Validate checks the fields the strategy needs, without touching a page.
func (d Descriptor) Validate(key string) error {
	if d.Strategy == StrategyRole {
		if d.Role == "" || d.Value == "" {
			return &ValidationError{Key: key, Reason: "role locator requires both 'role' and 'value'"}
		}
		return nil
	}
	if d.Value == "" {
		return &ValidationError{Key: key, Reason: fmt.Sprintf("%s locator has an empty value", d.Strategy)}
	}
	return nil
}

func (d Descriptor) String() string {
	if d.Strategy == StrategyRole {
		return fmt.Sprintf("role=%s[name=%q]", d.Role, d.Value)
	}
	return fmt.Sprintf("%s=%s", d.Strategy, d.Value)
}
