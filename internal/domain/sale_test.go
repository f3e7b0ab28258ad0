package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySale(t *testing.T) {
	tests := []struct {
		name     string
		boxes    int
		amount   float64
		expected SaleType
	}{
		{
			name:     "Abaixo dos dois limiares é varejo",
			boxes:    100,
			amount:   5000.0,
			expected: SaleTypeRetail,
		},
		{
			name:     "Caixas acima do limiar é atacado",
			boxes:    101,
			amount:   10.0,
			expected: SaleTypeWholesale,
		},
		{
			name:     "Valor acima do limiar é atacado",
			boxes:    1,
			amount:   5000.01,
			expected: SaleTypeWholesale,
		},
		{
			name:     "Exatamente nos limiares é varejo (desigualdade estrita)",
			boxes:    100,
			amount:   5000.0,
			expected: SaleTypeRetail,
		},
		{
			name:     "Venda zerada é varejo",
			boxes:    0,
			amount:   0,
			expected: SaleTypeRetail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifySale(tt.boxes, tt.amount))
		})
	}
}

func TestParseSaleType(t *testing.T) {
	saleType, err := ParseSaleType("Wholesale")
	assert.NoError(t, err)
	assert.Equal(t, SaleTypeWholesale, saleType)

	_, err = ParseSaleType("atacado")
	assert.Error(t, err)
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		product  string
		expected Category
	}{
		{"85% Dark Bars", CategoryDarkChocolate},
		{"Milk Bars", CategoryMilkChocolate},
		{"Choco Coated Almonds Syrup", CategorySyrups},
		{"Caramel Stuffed Bars", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategoryOf(tt.product))
		})
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("Owner")
	assert.NoError(t, err)
	assert.Equal(t, RoleOwner, role)

	role, err = ParseRole("SalesRep")
	assert.NoError(t, err)
	assert.Equal(t, RoleSalesRep, role)

	// Enum fechado: valores desconhecidos falham, nunca viram acesso
	_, err = ParseRole("Admin")
	assert.Error(t, err)

	_, err = ParseRole("")
	assert.Error(t, err)
}
