// Package setup renders the interactive terminal form for option inputs.
package setup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vadiminshakov/bsprice/internal/domain"
	"github.com/vadiminshakov/bsprice/internal/prompt"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(special).
			Padding(1, 2)
)

// fieldDescriptions help text shown under each input.
var fieldDescriptions = map[string]string{
	"spot":             "Current price of the underlying, > 0",
	"strike":           "Exercise price, > 0",
	"rate":             "Annual risk-free rate as a decimal (0.02) or percent (2%)",
	"time_to_maturity": "Years until expiry, 0 prices at intrinsic value",
	"volatility":       "Annualized volatility as a decimal (0.2) or percent (20%)",
}

// RunTUI shows the option input form and returns the entered values.
// note is an optional line shown under the header, e.g. where defaults came from.
func RunTUI(defaults prompt.Defaults, note string) (domain.OptionInputs, error) {
	values := make([]string, len(prompt.Fields))
	fields := make([]huh.Field, len(prompt.Fields))
	for i, f := range prompt.Fields {
		if def, ok := defaults[f.Name]; ok {
			values[i] = strconv.FormatFloat(def, 'g', -1, 64)
		}
		fields[i] = huh.NewInput().
			Title(f.Label).
			Description(fieldDescriptions[f.Name]).
			Value(&values[i]).
			Validate(ValidateField(f.Name))
	}

	fmt.Print("\033[H\033[2J") // clear screen
	fmt.Println(headerStyle.Render("BLACK-SCHOLES PRICER"))
	if note != "" {
		fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render(note))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return domain.OptionInputs{}, err
	}

	var in domain.OptionInputs
	for i, f := range prompt.Fields {
		v, err := prompt.ParseNumber(f.Name, values[i])
		if err != nil {
			return domain.OptionInputs{}, err
		}
		f.Set(&in, v)
	}
	return in, nil
}

// ValidateField returns the per-field check used by the form. Cross-field
// rules (zero volatility before expiry) are left to the pricer.
func ValidateField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("value is required")
		}
		v, err := prompt.ParseNumber(name, s)
		if err != nil {
			return fmt.Errorf("must be a valid number")
		}
		switch name {
		case "spot", "strike":
			if v <= 0 {
				return fmt.Errorf("must be greater than zero")
			}
		case "time_to_maturity", "volatility":
			if v < 0 {
				return fmt.Errorf("must not be negative")
			}
		}
		return nil
	}
}

// RenderQuote formats a priced quote for the terminal.
func RenderQuote(quote domain.Quote, precision int) string {
	body := fmt.Sprintf(
		"Call: %s\nPut:  %s\n\nS=%g K=%g r=%g T=%g sigma=%g",
		prompt.FormatFloat(quote.Prices.Call, precision),
		prompt.FormatFloat(quote.Prices.Put, precision),
		quote.Inputs.Spot, quote.Inputs.Strike, quote.Inputs.Rate,
		quote.Inputs.TimeToMaturity, quote.Inputs.Volatility,
	)
	return resultStyle.Render(body)
}
