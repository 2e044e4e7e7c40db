package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gastos/internal/core"
)

// DefaultTitle is shown above the input panel when no view config sets one.
const DefaultTitle = "Gastos del Mes"

// DefaultCurrencySymbol prefixes every rendered amount.
const DefaultCurrencySymbol = "$"

// View holds presentation settings loaded from an optional YAML file.
type View struct {
	Title          string            `yaml:"title"`
	CurrencySymbol string            `yaml:"currency_symbol"`
	Labels         map[string]string `yaml:"labels"`
}

func DefaultView() *View {
	return &View{Title: DefaultTitle, CurrencySymbol: DefaultCurrencySymbol}
}

// LoadView reads the YAML file at path. An empty path yields DefaultView.
// Label keys must name known categories.
func LoadView(path string) (*View, error) {
	if path == "" {
		return DefaultView(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read view config: %w", err)
	}

	v := DefaultView()
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("parse view config %s: %w", path, err)
	}
	if v.Title == "" {
		v.Title = DefaultTitle
	}
	for key := range v.Labels {
		if _, err := core.ParseCategory(key); err != nil {
			return nil, fmt.Errorf("view config label %q: %w", key, err)
		}
	}
	return v, nil
}

// Label returns the display label for c, preferring the configured override.
func (v *View) Label(c core.Category) string {
	if v != nil {
		if l, ok := v.Labels[string(c)]; ok && l != "" {
			return l
		}
	}
	return c.Label()
}
