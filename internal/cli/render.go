package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Veraticus/tariff-impact/internal/exchange"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMoney formats an amount with thousands separators and two decimals.
func FormatMoney(amount float64, currency string) string {
	if currency == "" {
		return printer.Sprintf("%.2f", amount)
	}
	return printer.Sprintf("%s %.2f", currency, amount)
}

// FormatPercent formats a percentage with two decimals.
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate)
}

func field(label, value string) string {
	return LabelStyle.Render(label) + value
}

// RenderCalculation writes a single calculation result.
// A non-nil err marks the result as degraded.
func RenderCalculation(w io.Writer, result model.CalculationResult, err error) error {
	in := result.Input
	lines := []string{
		field("Classification", in.ClassificationCode),
	}
	if in.ProductName != "" {
		lines = append(lines, field("Product", in.ProductName))
	}
	lines = append(lines,
		field("Origin", strings.ToUpper(in.OriginCountry)),
		field("Import value", FormatMoney(in.ImportValue, strings.ToUpper(in.Currency))),
		field("Exchange rate", fmt.Sprintf("%.4f", result.ExchangeRateUsed)),
		field("Tariff rate", FormatPercent(result.TariffRate)),
		field("Tariff amount", FormatMoney(result.TariffAmount, "USD")),
		field("Total landed cost", FormatMoney(result.TotalLandedCost, "USD")),
		field("Effective rate", FormatPercent(result.EffectiveRate)),
		field("Monthly impact", FormatMoney(result.MonthlyImpact, "USD")),
		field("Annual impact", FormatMoney(result.AnnualImpact, "USD")),
		field("Cost increase", FormatPercent(result.PercentageIncrease)),
		field("Confidence", FormatConfidence(string(result.Confidence))),
		field("Data sources", SubtleStyle.Render(strings.Join(result.DataSources, ", "))),
	)

	out := RenderBox(ChartIcon+" Tariff impact", lipgloss.JoinVertical(lipgloss.Left, lines...))
	if err != nil {
		out += "\n" + FormatWarning("Degraded result: "+err.Error())
	}
	_, werr := fmt.Fprintln(w, out)
	return werr
}

// RenderBulk writes a bulk analysis summary and its per-product table.
func RenderBulk(w io.Writer, result model.BulkAnalysisResult, err error) error {
	var b strings.Builder

	b.WriteString(FormatTitle(result.ScenarioName) + "\n")

	rows := [][]string{{"Code", "Product", "Origin", "Rate", "Tariff", "Confidence"}}
	for _, p := range result.Products {
		rows = append(rows, []string{
			p.Input.ClassificationCode,
			p.Input.Label(),
			strings.ToUpper(p.Input.OriginCountry),
			FormatPercent(p.TariffRate),
			FormatMoney(p.TariffAmount, "USD"),
			string(p.Confidence),
		})
	}
	b.WriteString(renderTable(rows))
	b.WriteString("\n")

	s := result.Summary
	summary := lipgloss.JoinVertical(lipgloss.Left,
		field("Products", fmt.Sprintf("%d", len(result.Products))),
		field("Total import value", FormatMoney(s.TotalImportValue, "")),
		field("Total tariff cost", FormatMoney(s.TotalTariffCost, "USD")),
		field("Average rate", FormatPercent(s.AverageEffectiveRate)),
		field("Highest rate", FormatPercent(s.HighestTariffRate)),
		field("Most impacted", s.MostImpactedProduct),
	)
	b.WriteString(RenderBox("Summary", summary))

	if result.Excluded > 0 {
		b.WriteString("\n" + FormatWarning(fmt.Sprintf("%d product(s) excluded after failed calculations", result.Excluded)))
	}
	if err != nil {
		b.WriteString("\n" + FormatError(err.Error()))
	}

	_, werr := fmt.Fprintln(w, b.String())
	return werr
}

// RenderSearch writes classification search hits.
func RenderSearch(w io.Writer, query string, hits []model.ClassificationSummary) error {
	if len(hits) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo(fmt.Sprintf("No classifications match %q", query)))
		return err
	}

	rows := [][]string{{"Code", "Category", "Description"}}
	for _, h := range hits {
		rows = append(rows, []string{string(h.Code), h.Category, h.Description})
	}
	_, err := fmt.Fprintln(w, renderTable(rows))
	return err
}

// RenderRecord writes the per-country rates of a classification record.
func RenderRecord(w io.Writer, record model.ClassificationRecord, err error) error {
	header := lipgloss.JoinVertical(lipgloss.Left,
		field("Description", record.Description),
		field("Category", record.Category),
		field("Unit", record.Unit),
		field("Data source", SubtleStyle.Render(record.DataSource)),
		field("Last updated", record.LastUpdated.Format("2006-01-02")),
	)

	codes := make([]string, 0, len(record.Countries))
	for code := range record.Countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rows := [][]string{{"Country", "General", "Other", "Agreement"}}
	for _, code := range codes {
		entry := record.Countries[code]
		general := "-"
		agreement := ""
		if g, ok := entry.GeneralRate(); ok {
			general = FormatPercent(g.Rate)
			agreement = g.TradeAgreement
		}
		rows = append(rows, []string{
			fmt.Sprintf("%s %s", code, entry.CountryName),
			general,
			otherRates(entry),
			agreement,
		})
	}

	out := RenderBox(string(record.Code), header) + "\n" + renderTable(rows)
	if record.IsGenerated() {
		out += "\n" + FormatWarning("No curated data for this code; rates are generated estimates")
	}
	if err != nil {
		out += "\n" + FormatWarning("Degraded result: "+err.Error())
	}
	_, werr := fmt.Fprintln(w, out)
	return werr
}

func otherRates(entry model.CountryRateEntry) string {
	var parts []string
	for kind, r := range entry.Rates {
		if kind == model.RateKindGeneral {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", kind, FormatPercent(r.Rate)))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// RenderRates writes an exchange rate table for base.
func RenderRates(w io.Writer, base string, rates model.ExchangeRates, err error) error {
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rows := [][]string{{"Currency", "Rate", "Source"}}
	for _, code := range codes {
		e := rates[code]
		rows = append(rows, []string{code, fmt.Sprintf("%.4f", e.Rate), string(e.Source)})
	}

	out := FormatTitle("Exchange rates (base " + strings.ToUpper(base) + ")") + "\n" + renderTable(rows)
	if err != nil {
		out += "\n" + FormatWarning("Using fallback rates: "+err.Error())
	}
	_, werr := fmt.Fprintln(w, out)
	return werr
}

// RenderConversion writes a currency conversion.
func RenderConversion(w io.Writer, amount float64, conv exchange.Conversion, err error) error {
	if conv.Rate == 0 && err != nil {
		_, werr := fmt.Fprintln(w, FormatError(err.Error()))
		return werr
	}

	out := fmt.Sprintf("%s = %s %s",
		FormatMoney(amount, conv.From),
		BoldStyle.Render(FormatMoney(conv.Amount, conv.To)),
		SubtleStyle.Render(fmt.Sprintf("(rate %.4f)", conv.Rate)))
	if err != nil {
		out += "\n" + FormatWarning("Using fallback rates: "+err.Error())
	}
	_, werr := fmt.Fprintln(w, out)
	return werr
}

// RenderHistory writes stored calculations.
func RenderHistory(w io.Writer, entries []model.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No calculations recorded yet"))
		return err
	}

	rows := [][]string{{"ID", "When", "Code", "Origin", "Tariff", "Confidence", "OK"}}
	for _, e := range entries {
		ok := SuccessIcon
		if !e.Success {
			ok = ErrorIcon
		}
		rows = append(rows, []string{
			e.ID[:min(8, len(e.ID))],
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Result.Input.ClassificationCode,
			strings.ToUpper(e.Result.Input.OriginCountry),
			FormatMoney(e.Result.TariffAmount, "USD"),
			string(e.Result.Confidence),
			ok,
		})
	}
	_, err := fmt.Fprintln(w, renderTable(rows))
	return err
}

// RenderProfiles writes the list of saved profiles.
func RenderProfiles(w io.Writer, profiles []model.BusinessProfile) error {
	if len(profiles) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No saved profiles"))
		return err
	}

	rows := [][]string{{"Name", "Type", "Countries", "Products", "Monthly volume", "Updated"}}
	for _, p := range profiles {
		rows = append(rows, []string{
			p.Name,
			p.BusinessType,
			strings.Join(p.SourceCountries, ","),
			fmt.Sprintf("%d", len(p.Products)),
			FormatMoney(p.MonthlyImportVolume, "USD"),
			p.UpdatedAt.Local().Format("2006-01-02"),
		})
	}
	_, err := fmt.Fprintln(w, renderTable(rows))
	return err
}

// RenderProfile writes one profile and its products.
func RenderProfile(w io.Writer, p model.BusinessProfile) error {
	header := lipgloss.JoinVertical(lipgloss.Left,
		field("Business type", p.BusinessType),
		field("Source countries", strings.Join(p.SourceCountries, ", ")),
		field("Monthly volume", FormatMoney(p.MonthlyImportVolume, "USD")),
	)

	rows := [][]string{{"Code", "Product", "Origin", "Value", "Extra costs"}}
	for _, in := range p.Products {
		rows = append(rows, []string{
			in.ClassificationCode,
			in.Label(),
			strings.ToUpper(in.OriginCountry),
			FormatMoney(in.ImportValue, strings.ToUpper(in.Currency)),
			FormatMoney(in.AdditionalCosts(), strings.ToUpper(in.Currency)),
		})
	}

	_, err := fmt.Fprintln(w, RenderBox(p.Name, header)+"\n"+renderTable(rows))
	return err
}

func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var b strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			style := TableCellStyle.Width(widths[i] + 2)
			if r == 0 {
				style = style.Bold(true)
			}
			cells[i] = style.Render(cell)
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
		if r == 0 {
			line = TableHeaderStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
