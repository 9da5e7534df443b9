// Package rates holds the static tariff schedule used as reference data.
package rates

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/model"
)

// StaticCatalog serves classification records from an in-memory table.
// Every lookup returns a fresh copy, so callers never share maps with the table.
type StaticCatalog struct {
	records     map[model.ClassificationCode]model.ClassificationRecord
	lastUpdated time.Time
}

// NewStaticCatalog returns the built-in schedule.
func NewStaticCatalog() *StaticCatalog {
	return NewCatalog(defaultRecords(), scheduleDate)
}

// NewCatalog builds a catalog from explicit records, keyed by their normalized code.
func NewCatalog(records []model.ClassificationRecord, lastUpdated time.Time) *StaticCatalog {
	c := &StaticCatalog{
		records:     make(map[model.ClassificationCode]model.ClassificationRecord, len(records)),
		lastUpdated: lastUpdated,
	}
	for _, r := range records {
		r.Code = model.NormalizeCode(string(r.Code))
		if r.DataSource == "" {
			r.DataSource = model.DataSourceStatic
		}
		if r.LastUpdated.IsZero() {
			r.LastUpdated = lastUpdated
		}
		c.records[r.Code] = r
	}
	return c
}

// Lookup returns the record for an already normalized code, or an error wrapping common.ErrNotFound.
func (c *StaticCatalog) Lookup(_ context.Context, code model.ClassificationCode) (model.ClassificationRecord, error) {
	r, ok := c.records[code]
	if !ok {
		return model.ClassificationRecord{}, fmt.Errorf("classification %s: %w", code, common.ErrNotFound)
	}
	return cloneRecord(r), nil
}

// Summaries lists every record ordered by code.
func (c *StaticCatalog) Summaries(_ context.Context) ([]model.ClassificationSummary, error) {
	out := make([]model.ClassificationSummary, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Len returns the number of records.
func (c *StaticCatalog) Len() int {
	return len(c.records)
}

func cloneRecord(r model.ClassificationRecord) model.ClassificationRecord {
	countries := make(map[string]model.CountryRateEntry, len(r.Countries))
	for code, entry := range r.Countries {
		entry.Rates = maps.Clone(entry.Rates)
		countries[code] = entry
	}
	r.Countries = countries
	return r
}
