package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tariff-impact/internal/common"
)

// testEnv is an isolated config: a temp database and a fake exchange rate API.
type testEnv struct {
	dir        string
	configPath string
	fxDown     bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{dir: t.TempDir()}

	fx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.fxDown {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch strings.TrimPrefix(r.URL.Path, "/") {
		case "EUR":
			_, _ = io.WriteString(w, `{"rates": {"USD": 1.1, "GBP": 0.86}}`)
		default:
			_, _ = io.WriteString(w, `{"rates": {"EUR": 0.9, "GBP": 0.78, "JPY": 150}}`)
		}
	}))
	t.Cleanup(fx.Close)

	env.configPath = env.writeFile(t, "config.yaml", fmt.Sprintf(`
database:
  path: %s
exchange:
  endpoint: %s
  timeout: 2s
`, filepath.Join(env.dir, "tariff.db"), fx.URL))

	return env
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	cfgFile = ""

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.configPath, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &v), raw)
	return v
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "tariff dev\n", out)
}

func TestCalculateCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "calculate", "--code", "8471.30.01", "--country", "CN", "--value", "10000")
	require.NoError(t, err)
	assert.Contains(t, out, "USD 2,500.00")
	assert.Contains(t, out, "25.00%")

	out, err = env.run(t, "", "calculate", "--code", "8471.30.01", "--country", "ZZ", "--value", "1000", "--json")
	require.NoError(t, err)
	payload := decode(t, out)
	assert.Equal(t, false, payload["success"])
	result := payload["result"].(map[string]any)
	assert.InDelta(t, 100.0, result["tariff_amount"], 0.0001)

	out, err = env.run(t, "", "calculate", "--code", "6109.10.00", "--country", "BD", "--value", "1000", "--currency", "EUR", "--json", "--no-save")
	require.NoError(t, err)
	result = decode(t, out)["result"].(map[string]any)
	assert.InDelta(t, 1.1, result["exchange_rate_used"], 0.0001)
	assert.InDelta(t, 181.5, result["tariff_amount"], 0.0001)

	out, err = env.run(t, "", "history", "list", "--json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 2)
}

func TestCalculateCommand_MissingFlags(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "calculate", "--code", "8471.30.01")
	assert.Error(t, err)
}

func TestCalculateCommand_NonFiniteValue(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "calculate", "--code", "8471.30.01", "--country", "CN", "--value", "NaN", "--json")
	require.NoError(t, err)
	payload := decode(t, out)
	assert.Equal(t, false, payload["success"])
	assert.Contains(t, payload["error"], "invalid calculation input")
	result := payload["result"].(map[string]any)
	assert.Zero(t, result["tariff_amount"])

	out, err = env.run(t, "", "history", "list", "--json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Empty(t, entries)
}

func TestBulkCommand(t *testing.T) {
	env := newTestEnv(t)
	scenario := env.writeFile(t, "scenario.yaml", `
scenario_name: Q3 plan
products:
  - classification_code: "8471.30.01"
    product_name: Laptops
    origin_country: CN
    import_value: 10000
    currency: USD
  - classification_code: "6109.10.00"
    origin_country: BD
    import_value: 5000
    currency: USD
  - classification_code: "8471.30.01"
    origin_country: CN
    import_value: -5
    currency: USD
`)

	out, err := env.run(t, "", "bulk", scenario, "--json")
	require.NoError(t, err)

	result := decode(t, out)["result"].(map[string]any)
	assert.Equal(t, "Q3 plan", result["scenario_name"])
	assert.InDelta(t, 3325.0, result["total_tariff_impact"], 0.0001)
	assert.Len(t, result["products"], 2)
	assert.InDelta(t, 1, result["excluded_count"], 0.0001)

	out, err = env.run(t, "", "bulk", scenario, "--quiet", "--name", "Renamed")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed")
	assert.Contains(t, out, "8471.30.01 (2500.00)")
}

func TestBulkCommand_BadFiles(t *testing.T) {
	env := newTestEnv(t)
	empty := env.writeFile(t, "empty.yaml", "scenario_name: nothing\nproducts: []\n")
	unknown := env.writeFile(t, "unknown.yaml", "scenario: typo\n")

	var userErr *common.UserError

	_, err := env.run(t, "", "bulk", empty)
	require.ErrorAs(t, err, &userErr)
	assert.ErrorIs(t, err, errEmptyScenario)

	_, err = env.run(t, "", "bulk", unknown)
	require.ErrorAs(t, err, &userErr)

	_, err = env.run(t, "", "bulk", filepath.Join(env.dir, "missing.yaml"))
	require.ErrorAs(t, err, &userErr)
}

func TestReferenceCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "search", "coffee")
	require.NoError(t, err)
	assert.Contains(t, out, "0901.21.00")

	out, err = env.run(t, "", "lookup", "8471.30.01", "--json")
	require.NoError(t, err)
	assert.Equal(t, "Static tariff schedule", decode(t, out)["data_source"])

	out, err = env.run(t, "", "rates", "eur", "--json")
	require.NoError(t, err)
	usd := decode(t, out)["USD"].(map[string]any)
	assert.InDelta(t, 1.1, usd["rate"], 0.0001)
	assert.Equal(t, "live", usd["source"])

	out, err = env.run(t, "", "convert", "100", "usd", "jpy")
	require.NoError(t, err)
	assert.Contains(t, out, "JPY 15,000.00")

	_, err = env.run(t, "", "convert", "abc", "USD", "EUR")
	assert.Error(t, err)

	_, err = env.run(t, "", "convert", "100", "USD", "XYZ")
	assert.Error(t, err)
}

func TestRatesCommand_Fallback(t *testing.T) {
	env := newTestEnv(t)
	env.fxDown = true

	out, err := env.run(t, "", "rates", "--json")
	require.NoError(t, err)
	eur := decode(t, out)["EUR"].(map[string]any)
	assert.InDelta(t, 0.85, eur["rate"], 0.0001)
	assert.Equal(t, "fallback", eur["source"])
}

func TestProfilesCommands(t *testing.T) {
	env := newTestEnv(t)
	profileFile := env.writeFile(t, "profile.yaml", `
name: acme
business_type: electronics retailer
source_countries: [CN]
monthly_import_volume: 50000
products:
  - classification_code: "8541.43.00"
    origin_country: CN
    import_value: 2000
    currency: USD
`)

	out, err := env.run(t, "", "profiles", "save", profileFile)
	require.NoError(t, err)
	assert.Contains(t, out, `Saved profile "acme" with 1 product(s)`)

	out, err = env.run(t, "", "profiles", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "acme")

	out, err = env.run(t, "", "profiles", "show", "acme", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: acme")
	assert.Contains(t, out, "classification_code: 8541.43.00")
	assert.NotContains(t, out, "created_at")

	out, err = env.run(t, "", "profiles", "run", "acme", "--json")
	require.NoError(t, err)
	result := decode(t, out)["result"].(map[string]any)
	assert.Equal(t, "acme", result["scenario_name"])
	assert.InDelta(t, 1000.0, result["total_tariff_impact"], 0.0001)

	_, err = env.run(t, "", "profiles", "delete", "acme")
	require.NoError(t, err)

	_, err = env.run(t, "", "profiles", "show", "acme")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProfilesNewCommand(t *testing.T) {
	env := newTestEnv(t)

	answers := "retail\nMX\n1000\ny\n9403.60.80\nChairs\n\n500\n\n\n\n\nn\n"
	out, err := env.run(t, answers, "profiles", "new", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, `Saved profile "shop"`)

	out, err = env.run(t, "", "profiles", "show", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "Chairs")
}

func TestHistoryCommands(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "calculate", "--code", "8471.30.01", "--country", "MX", "--value", "100")
	require.NoError(t, err)

	out, err := env.run(t, "", "history", "list", "--json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)

	out, err = env.run(t, "", "history", "show", entries[0]["id"].(string))
	require.NoError(t, err)
	assert.Contains(t, out, "8471.30.01")

	_, err = env.run(t, "", "history", "clear")
	assert.Error(t, err)

	out, err = env.run(t, "", "history", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 calculation(s)")
}

func TestMigrateCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "current version: 0")

	_, err = env.run(t, "", "migrate")
	require.NoError(t, err)

	out, err = env.run(t, "", "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "current version: 2")
}

func TestInvalidConfiguration(t *testing.T) {
	env := newTestEnv(t)
	env.configPath = env.writeFile(t, "bad.yaml", "cache:\n  backend: memcached\n")

	_, err := env.run(t, "", "search", "coffee")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
