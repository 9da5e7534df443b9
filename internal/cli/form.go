package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/tariff-impact/internal/model"
)

// ErrTooManyAttempts is returned when a prompt keeps receiving invalid answers.
var ErrTooManyAttempts = errors.New("too many invalid answers")

const maxPromptAttempts = 3

// ProfileForm collects a business profile interactively: business details first, then products.
type ProfileForm struct {
	reader *LineReader
	writer io.Writer
}

// NewProfileForm creates a form reading answers from r and writing prompts to w.
func NewProfileForm(r io.Reader, w io.Writer) *ProfileForm {
	return &ProfileForm{
		reader: NewLineReader(r),
		writer: w,
	}
}

// Run walks through the form. name pre-fills the profile name when non-empty.
func (f *ProfileForm) Run(ctx context.Context, name string) (*model.BusinessProfile, error) {
	f.println(FormatTitle("New business profile"))

	var err error
	profile := &model.BusinessProfile{Name: strings.TrimSpace(name)}

	if profile.Name == "" {
		if profile.Name, err = f.askRequired(ctx, "Profile name"); err != nil {
			return nil, err
		}
	}
	if profile.BusinessType, err = f.ask(ctx, "Business type", ""); err != nil {
		return nil, err
	}

	countries, err := f.ask(ctx, "Source countries (comma separated)", "")
	if err != nil {
		return nil, err
	}
	profile.SourceCountries = splitCountries(countries)

	if profile.MonthlyImportVolume, err = f.askFloat(ctx, "Monthly import volume (USD)", 0, false); err != nil {
		return nil, err
	}

	defaultOrigin := ""
	if len(profile.SourceCountries) > 0 {
		defaultOrigin = profile.SourceCountries[0]
	}

	for {
		more, askErr := f.ask(ctx, "Add a product? [y/N]", "n")
		if askErr != nil {
			return nil, askErr
		}
		if !strings.HasPrefix(strings.ToLower(more), "y") {
			break
		}

		product, prodErr := f.product(ctx, defaultOrigin)
		if prodErr != nil {
			return nil, prodErr
		}
		profile.Products = append(profile.Products, product)
		f.println(FormatSuccess(fmt.Sprintf("Added %s", product.Label())))
	}

	return profile, nil
}

func (f *ProfileForm) product(ctx context.Context, defaultOrigin string) (model.CalculationInput, error) {
	var in model.CalculationInput
	var err error

	if in.ClassificationCode, err = f.askRequired(ctx, "  Classification code"); err != nil {
		return in, err
	}
	if in.ProductName, err = f.ask(ctx, "  Product name", ""); err != nil {
		return in, err
	}
	origin, err := f.ask(ctx, "  Origin country", defaultOrigin)
	if err != nil {
		return in, err
	}
	in.OriginCountry = strings.ToUpper(origin)
	if in.OriginCountry == "" {
		if in.OriginCountry, err = f.askRequired(ctx, "  Origin country"); err != nil {
			return in, err
		}
		in.OriginCountry = strings.ToUpper(in.OriginCountry)
	}
	if in.ImportValue, err = f.askFloat(ctx, "  Import value", 0, true); err != nil {
		return in, err
	}
	currency, err := f.ask(ctx, "  Currency", "USD")
	if err != nil {
		return in, err
	}
	in.Currency = strings.ToUpper(currency)
	if in.ShippingCost, err = f.askFloat(ctx, "  Shipping cost", 0, false); err != nil {
		return in, err
	}
	if in.InsuranceCost, err = f.askFloat(ctx, "  Insurance cost", 0, false); err != nil {
		return in, err
	}
	if in.WarehousingCost, err = f.askFloat(ctx, "  Warehousing cost", 0, false); err != nil {
		return in, err
	}
	return in, nil
}

func (f *ProfileForm) ask(ctx context.Context, prompt, def string) (string, error) {
	label := prompt
	if def != "" {
		label = fmt.Sprintf("%s [%s]", prompt, def)
	}
	f.print(FormatPrompt(label))

	answer, err := f.reader.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (f *ProfileForm) askRequired(ctx context.Context, prompt string) (string, error) {
	for i := 0; i < maxPromptAttempts; i++ {
		answer, err := f.ask(ctx, prompt, "")
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		f.println(FormatWarning("A value is required"))
	}
	return "", fmt.Errorf("%w: %s", ErrTooManyAttempts, strings.TrimSpace(prompt))
}

// askFloat reads a non-negative number; positive requires it to be > 0.
func (f *ProfileForm) askFloat(ctx context.Context, prompt string, def float64, positive bool) (float64, error) {
	defText := ""
	if !positive {
		defText = strconv.FormatFloat(def, 'f', -1, 64)
	}

	for i := 0; i < maxPromptAttempts; i++ {
		answer, err := f.ask(ctx, prompt, defText)
		if err != nil {
			return 0, err
		}

		v, parseErr := strconv.ParseFloat(strings.ReplaceAll(answer, ",", ""), 64)
		switch {
		case parseErr != nil || math.IsNaN(v) || math.IsInf(v, 0):
			f.println(FormatWarning("Enter a number"))
		case v < 0:
			f.println(FormatWarning("The value cannot be negative"))
		case positive && v == 0:
			f.println(FormatWarning("The value must be greater than zero"))
		default:
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrTooManyAttempts, strings.TrimSpace(prompt))
}

func (f *ProfileForm) print(s string) {
	_, _ = fmt.Fprint(f.writer, s)
}

func (f *ProfileForm) println(s string) {
	_, _ = fmt.Fprintln(f.writer, s)
}

func splitCountries(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}
