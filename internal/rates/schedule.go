package rates

import (
	"time"

	"github.com/Veraticus/tariff-impact/internal/model"
)

var scheduleDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	section301List3 = time.Date(2018, time.September, 24, 0, 0, 0, 0, time.UTC)
	usmcaStart      = time.Date(2020, time.July, 1, 0, 0, 0, 0, time.UTC)
	section232Steel = time.Date(2018, time.March, 23, 0, 0, 0, 0, time.UTC)
	safeguard201    = time.Date(2018, time.February, 7, 0, 0, 0, 0, time.UTC)
)

func mfn(rate float64) model.Rate {
	return model.Rate{Rate: rate, Type: model.RateTypeMFN, EffectiveDate: scheduleDate}
}

func agreement(rate float64, name string, since time.Time) model.Rate {
	return model.Rate{Rate: rate, Type: model.RateTypeMFN, EffectiveDate: since, TradeAgreement: name}
}

func additional(rate float64, since time.Time, notes string) model.Rate {
	return model.Rate{Rate: rate, Type: model.RateTypeAdditional, EffectiveDate: since, Notes: notes}
}

func country(code, name string, general model.Rate, extra ...kindRate) model.CountryRateEntry {
	entry := model.CountryRateEntry{
		CountryCode: code,
		CountryName: name,
		Rates:       map[model.RateKind]model.Rate{model.RateKindGeneral: general},
	}
	for _, kr := range extra {
		entry.Rates[kr.kind] = kr.rate
	}
	return entry
}

type kindRate struct {
	kind model.RateKind
	rate model.Rate
}

func with(kind model.RateKind, rate model.Rate) kindRate {
	return kindRate{kind: kind, rate: rate}
}

func ptr(v float64) *float64 {
	return &v
}

func countries(entries ...model.CountryRateEntry) map[string]model.CountryRateEntry {
	out := make(map[string]model.CountryRateEntry, len(entries))
	for _, e := range entries {
		out[e.CountryCode] = e
	}
	return out
}

func defaultRecords() []model.ClassificationRecord {
	return []model.ClassificationRecord{
		{
			Code:        "8471.30.01",
			Description: "Portable automatic data processing machines (laptops, notebooks)",
			Category:    "Electronics",
			Unit:        "No.",
			Countries: countries(
				withVolume(country("CN", "China",
					additional(25, section301List3, "Section 301 List 3"),
					with(model.RateKindSection301, additional(25, section301List3, "Section 301 List 3"))),
					42_000_000, 640),
				country("MX", "Mexico", agreement(0, "USMCA", usmcaStart)),
				country("VN", "Vietnam", mfn(0)),
				country("TW", "Taiwan", mfn(0)),
				country("JP", "Japan", mfn(0)),
			),
		},
		{
			Code:        "8517.13.00",
			Description: "Smartphones",
			Category:    "Electronics",
			Unit:        "No.",
			Countries: countries(
				country("CN", "China", additional(20, section301List3, "Section 301 reciprocal")),
				country("VN", "Vietnam", mfn(0)),
				country("IN", "India", mfn(0)),
				country("KR", "South Korea", agreement(0, "KORUS", scheduleDate)),
			),
		},
		{
			Code:        "6109.10.00",
			Description: "T-shirts, singlets and other vests, knitted, of cotton",
			Category:    "Apparel",
			Unit:        "doz.",
			Countries: countries(
				country("CN", "China",
					additional(24, section301List3, "16.5% MFN plus 7.5% Section 301 List 4A"),
					with(model.RateKindSection301, additional(7.5, scheduleDate, "Section 301 List 4A"))),
				country("BD", "Bangladesh", mfn(16.5)),
				country("VN", "Vietnam", mfn(16.5)),
				country("IN", "India", mfn(16.5)),
				country("MX", "Mexico", agreement(0, "USMCA", usmcaStart)),
			),
		},
		{
			Code:        "9403.60.80",
			Description: "Wooden furniture, other than seats",
			Category:    "Furniture",
			Unit:        "No.",
			Countries: countries(
				country("CN", "China", additional(25, section301List3, "Section 301 List 3")),
				country("VN", "Vietnam", mfn(0)),
				country("MX", "Mexico", agreement(0, "USMCA", usmcaStart)),
				country("CA", "Canada", agreement(0, "USMCA", usmcaStart)),
				country("IT", "Italy", mfn(0)),
			),
		},
		{
			Code:        "8708.30.50",
			Description: "Brakes and servo-brakes and parts thereof for motor vehicles",
			Category:    "Automotive",
			Unit:        "kg",
			Countries: countries(
				country("CN", "China", additional(27.5, section301List3, "2.5% MFN plus 25% Section 301")),
				country("MX", "Mexico", agreement(0, "USMCA", usmcaStart)),
				country("CA", "Canada", agreement(0, "USMCA", usmcaStart)),
				country("DE", "Germany", mfn(2.5)),
				country("JP", "Japan", mfn(2.5)),
			),
		},
		{
			Code:        "7208.10.15",
			Description: "Flat-rolled iron or non-alloy steel, hot-rolled, in coils, pickled",
			Category:    "Steel & Metals",
			Unit:        "kg",
			Countries: countries(
				country("CN", "China",
					additional(25, section232Steel, "Section 232 steel"),
					with(model.RateKindAntidumping, model.Rate{
						Rate: 76.6, Type: model.RateTypeAntidumping, EffectiveDate: scheduleDate,
						Notes: "AD order A-570-007",
					})),
				country("KR", "South Korea", agreement(0, "KORUS quota", scheduleDate)),
				country("BR", "Brazil", additional(25, section232Steel, "Section 232 steel")),
				country("CA", "Canada", agreement(0, "USMCA", usmcaStart)),
				country("MX", "Mexico", agreement(0, "USMCA", usmcaStart)),
			),
		},
		{
			Code:        "3004.90.92",
			Description: "Medicaments in measured doses, other",
			Category:    "Pharmaceuticals",
			Unit:        "kg",
			Countries: countries(
				country("IN", "India", mfn(0)),
				country("DE", "Germany", mfn(0)),
				country("CH", "Switzerland", mfn(0)),
				country("IE", "Ireland", mfn(0)),
			),
		},
		{
			Code:        "0901.21.00",
			Description: "Coffee, roasted, not decaffeinated",
			Category:    "Food & Beverage",
			Unit:        "kg",
			Countries: countries(
				withVolume(country("BR", "Brazil", mfn(0)), 18_500_000, 7.4),
				country("CO", "Colombia", agreement(0, "US-Colombia TPA", scheduleDate)),
				country("VN", "Vietnam", mfn(0)),
				country("ET", "Ethiopia", mfn(0)),
			),
		},
		{
			Code:        "9503.00.00",
			Description: "Tricycles, scooters, dolls and other toys",
			Category:    "Toys",
			Unit:        "No.",
			Countries: countries(
				country("CN", "China", model.Rate{
					Rate: 0, Type: model.RateTypeMFN, EffectiveDate: scheduleDate,
					Notes: "Excluded from Section 301 List 4B",
				}),
				country("VN", "Vietnam", mfn(0)),
				country("MX", "Mexico", agreement(0, "USMCA", usmcaStart)),
			),
		},
		{
			Code:        "8541.43.00",
			Description: "Photovoltaic cells assembled in modules or made up into panels",
			Category:    "Energy",
			Unit:        "No.",
			Countries: countries(
				country("CN", "China",
					additional(50, scheduleDate, "Section 301 solar"),
					with(model.RateKindCountervailing, model.Rate{
						Rate: 15.2, Type: model.RateTypeCountervailing, EffectiveDate: scheduleDate,
						Notes: "CVD order C-570-980",
					})),
				country("MY", "Malaysia", additional(14, safeguard201, "Section 201 safeguard")),
				country("VN", "Vietnam", additional(14, safeguard201, "Section 201 safeguard")),
				country("IN", "India", additional(14, safeguard201, "Section 201 safeguard")),
			),
		},
	}
}

func withVolume(entry model.CountryRateEntry, volume, unitValue float64) model.CountryRateEntry {
	entry.ImportVolume = ptr(volume)
	entry.AverageUnitValue = ptr(unitValue)
	return entry
}
