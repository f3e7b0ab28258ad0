package scoping

import (
	"testing"

	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testRecords() []*domain.SaleRecord {
	return []*domain.SaleRecord{
		{ID: 1, SalesPerson: "Jehu Rudeforth", Country: "UK"},
		{ID: 2, SalesPerson: "Van Tuxwell", Country: "India"},
		{ID: 3, SalesPerson: "Jehu Rudeforth", Country: "USA"},
	}
}

func TestScope(t *testing.T) {
	service := NewService()

	tests := []struct {
		name        string
		identity    domain.Identity
		expectedIDs []int64
	}{
		{
			name:        "Owner enxerga o conjunto inteiro",
			identity:    domain.Identity{Username: "owner", Role: domain.RoleOwner},
			expectedIDs: []int64{1, 2, 3},
		},
		{
			name:        "SalesRep enxerga apenas as próprias vendas",
			identity:    domain.Identity{Username: "Jehu Rudeforth", Role: domain.RoleSalesRep},
			expectedIDs: []int64{1, 3},
		},
		{
			name:        "SalesRep sem vendas recebe conjunto vazio, não erro",
			identity:    domain.Identity{Username: "Ninguém", Role: domain.RoleSalesRep},
			expectedIDs: []int64{},
		},
		{
			name:        "Match do vendedor é exato, sem normalização de caixa",
			identity:    domain.Identity{Username: "jehu rudeforth", Role: domain.RoleSalesRep},
			expectedIDs: []int64{},
		},
		{
			name:        "Papel desconhecido falha fechado com conjunto vazio",
			identity:    domain.Identity{Username: "owner", Role: domain.Role("Admin")},
			expectedIDs: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scoped := service.Scope(testRecords(), tt.identity)

			ids := make([]int64, 0, len(scoped))
			for _, record := range scoped {
				ids = append(ids, record.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}
