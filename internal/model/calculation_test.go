package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want ClassificationCode
	}{
		{in: "8471.30.01", want: "8471.30.01"},
		{in: " HTS 8471.30.01 ", want: "8471.30.01"},
		{in: "8471-30-01", want: "84713001"},
		{in: "abc", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCode(tt.in))
		})
	}
}

func TestCalculationInput_Validate(t *testing.T) {
	valid := CalculationInput{
		ClassificationCode: "8471.30.01",
		OriginCountry:      "CN",
		ImportValue:        1000,
		Currency:           "USD",
	}

	tests := []struct {
		name    string
		mutate  func(*CalculationInput)
		wantErr bool
	}{
		{name: "valid", mutate: func(*CalculationInput) {}},
		{name: "missing code", mutate: func(in *CalculationInput) { in.ClassificationCode = " " }, wantErr: true},
		{name: "missing country", mutate: func(in *CalculationInput) { in.OriginCountry = "" }, wantErr: true},
		{name: "missing currency", mutate: func(in *CalculationInput) { in.Currency = "" }, wantErr: true},
		{name: "zero value", mutate: func(in *CalculationInput) { in.ImportValue = 0 }, wantErr: true},
		{name: "negative shipping", mutate: func(in *CalculationInput) { in.ShippingCost = -1 }, wantErr: true},
		{name: "NaN value", mutate: func(in *CalculationInput) { in.ImportValue = math.NaN() }, wantErr: true},
		{name: "infinite value", mutate: func(in *CalculationInput) { in.ImportValue = math.Inf(1) }, wantErr: true},
		{name: "negative infinite value", mutate: func(in *CalculationInput) { in.ImportValue = math.Inf(-1) }, wantErr: true},
		{name: "NaN insurance", mutate: func(in *CalculationInput) { in.InsuranceCost = math.NaN() }, wantErr: true},
		{name: "infinite warehousing", mutate: func(in *CalculationInput) { in.WarehousingCost = math.Inf(1) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClassificationRecord_IsGenerated(t *testing.T) {
	assert.True(t, ClassificationRecord{DataSource: DataSourceGenerated}.IsGenerated())
	assert.True(t, ClassificationRecord{DataSource: "Mock tariff feed"}.IsGenerated())
	assert.False(t, ClassificationRecord{DataSource: DataSourceStatic}.IsGenerated())
}

func TestCalculationInput_Label(t *testing.T) {
	assert.Equal(t, "Laptops", CalculationInput{ClassificationCode: "8471.30.01", ProductName: "Laptops"}.Label())
	assert.Equal(t, "8471.30.01", CalculationInput{ClassificationCode: "8471.30.01"}.Label())
}

func TestCalculationInput_Finite(t *testing.T) {
	in := CalculationInput{
		ClassificationCode: "8471.30.01",
		ImportValue:        math.NaN(),
		ShippingCost:       250,
		InsuranceCost:      math.Inf(1),
		WarehousingCost:    math.Inf(-1),
	}

	got := in.Finite()
	assert.Zero(t, got.ImportValue)
	assert.Equal(t, 250.0, got.ShippingCost)
	assert.Zero(t, got.InsuranceCost)
	assert.Zero(t, got.WarehousingCost)
	assert.True(t, math.IsNaN(in.ImportValue))
}
