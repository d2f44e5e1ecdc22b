// Package prompt reads option inputs from a line-oriented stream such as stdin.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/bsprice/internal/domain"
)

// float64 covers magnitudes up to ~1.8e308; anything below 1e-324 rounds to zero.
const (
	maxFloatMagnitude = 309
	minFloatMagnitude = -324
)

// ErrParse is matched by every ParseError.
var ErrParse = errors.New("parse error")

// ParseError reports text that is not a usable number.
type ParseError struct {
	Field string
	Text  string
	// Reason defaults to "is not a number".
	Reason string
}

func (e *ParseError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is not a number"
	}
	return fmt.Sprintf("%s: %q %s", e.Field, e.Text, reason)
}

// Is makes errors.Is(err, ErrParse) true.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Field describes one prompted input.
type Field struct {
	Name  string
	Label string
	set   func(*domain.OptionInputs, float64)
	get   func(domain.OptionInputs) float64
}

// Fields are prompted in this order.
var Fields = []Field{
	{
		Name:  "spot",
		Label: "Spot price",
		set:   func(in *domain.OptionInputs, v float64) { in.Spot = v },
		get:   func(in domain.OptionInputs) float64 { return in.Spot },
	},
	{
		Name:  "strike",
		Label: "Strike price",
		set:   func(in *domain.OptionInputs, v float64) { in.Strike = v },
		get:   func(in domain.OptionInputs) float64 { return in.Strike },
	},
	{
		Name:  "rate",
		Label: "Risk-free rate",
		set:   func(in *domain.OptionInputs, v float64) { in.Rate = v },
		get:   func(in domain.OptionInputs) float64 { return in.Rate },
	},
	{
		Name:  "time_to_maturity",
		Label: "Time to maturity (years)",
		set:   func(in *domain.OptionInputs, v float64) { in.TimeToMaturity = v },
		get:   func(in domain.OptionInputs) float64 { return in.TimeToMaturity },
	},
	{
		Name:  "volatility",
		Label: "Volatility",
		set:   func(in *domain.OptionInputs, v float64) { in.Volatility = v },
		get:   func(in domain.OptionInputs) float64 { return in.Volatility },
	},
}

// Set stores v into the field of in.
func (f Field) Set(in *domain.OptionInputs, v float64) { f.set(in, v) }

// Get reads the field from in.
func (f Field) Get(in domain.OptionInputs) float64 { return f.get(in) }

// Defaults are values used when the user submits an empty line.
type Defaults map[string]float64

// Prompter asks for each input on out and reads answers from in.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
	// Retries is how many times a malformed line is re-prompted before giving up.
	Retries int
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// ReadInputs prompts for the five option inputs.
func (p *Prompter) ReadInputs(defaults Defaults) (domain.OptionInputs, error) {
	var in domain.OptionInputs
	for _, f := range Fields {
		v, err := p.readField(f, defaults)
		if err != nil {
			return domain.OptionInputs{}, err
		}
		f.Set(&in, v)
	}
	return in, nil
}

func (p *Prompter) readField(f Field, defaults Defaults) (float64, error) {
	def, hasDefault := defaults[f.Name]

	for attempt := 0; ; attempt++ {
		if hasDefault {
			fmt.Fprintf(p.out, "%s [%s]: ", f.Label, strconv.FormatFloat(def, 'g', -1, 64))
		} else {
			fmt.Fprintf(p.out, "%s: ", f.Label)
		}

		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, errors.Wrapf(err, "read %s", f.Name)
			}
			return 0, errors.Wrapf(io.ErrUnexpectedEOF, "read %s", f.Name)
		}

		text := strings.TrimSpace(p.in.Text())
		if text == "" && hasDefault {
			return def, nil
		}

		v, err := ParseNumber(f.Name, text)
		if err == nil {
			return v, nil
		}
		if attempt >= p.Retries {
			return 0, err
		}
		fmt.Fprintf(p.out, "%v, try again\n", err)
	}
}

// ParseNumber parses a decimal number entered by a user. Percent values
// like "2%" are accepted and divided by 100.
func ParseNumber(field, text string) (float64, error) {
	s := strings.TrimSpace(text)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ParseError{Field: field, Text: text}
	}
	if percent {
		d = d.Shift(-2)
	}
	if d.IsZero() {
		return 0, nil
	}

	// d lies in [10^(magnitude-1), 10^magnitude); converting huge exponents
	// through big.Rat is slow, so range is checked on the exponent first.
	magnitude := int64(d.Exponent()) + int64(d.NumDigits())
	if magnitude < minFloatMagnitude {
		return 0, nil
	}
	if magnitude > maxFloatMagnitude {
		return 0, &ParseError{Field: field, Text: text, Reason: "is out of range"}
	}

	v := d.InexactFloat64()
	if math.IsInf(v, 0) {
		return 0, &ParseError{Field: field, Text: text, Reason: "is out of range"}
	}
	return v, nil
}

// FormatPrices renders "{call}, {put}". A negative precision prints the
// shortest representation that round-trips.
func FormatPrices(prices domain.Prices, precision int) string {
	return fmt.Sprintf("%s, %s", FormatFloat(prices.Call, precision), FormatFloat(prices.Put, precision))
}

// FormatFloat renders v with precision decimals, or exactly when precision < 0.
func FormatFloat(v float64, precision int) string {
	if precision < 0 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(int32(precision))
}
