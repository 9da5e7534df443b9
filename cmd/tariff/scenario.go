package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/config"
	"github.com/Veraticus/tariff-impact/internal/model"
)

var errEmptyScenario = errors.New("scenario has no products")

// scenarioFile is the YAML layout accepted by `tariff bulk`.
type scenarioFile struct {
	ScenarioName string                   `yaml:"scenario_name"`
	Products     []model.CalculationInput `yaml:"products"`
}

func decodeYAMLFile(path string, dst any) error {
	f, err := os.Open(config.ExpandPath(path)) //nolint:gosec // path is supplied by the user
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Cannot open %s", path), err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		return common.NewUserError(fmt.Sprintf("Cannot parse %s", path), err)
	}
	return nil
}

func loadScenario(path string) (*scenarioFile, error) {
	var s scenarioFile
	if err := decodeYAMLFile(path, &s); err != nil {
		return nil, err
	}
	if len(s.Products) == 0 {
		return nil, common.NewUserError(fmt.Sprintf("%s lists no products", path), errEmptyScenario)
	}
	return &s, nil
}

func loadProfile(path string) (*model.BusinessProfile, error) {
	var p model.BusinessProfile
	if err := decodeYAMLFile(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
