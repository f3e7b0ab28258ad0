package ingesting

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rmonteiro89/sales-analytics-api/infrastructure/repository/mocks"
	"github.com/rmonteiro89/sales-analytics-api/internal/config"
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestService(t *testing.T) (*Service, *mocks.MockSaleRepository) {
	ctrl := gomock.NewController(t)
	saleRepo := mocks.NewMockSaleRepository(ctrl)

	cfg := &config.Config{}
	cfg.Ingestion.DateFormat = "02-Jan-06"

	return NewService(saleRepo, cfg).(*Service), saleRepo
}

func sourceHeader() []string {
	return []string{"Sales Person", "Country", "Product", "Date", "Amount", "Boxes Shipped"}
}

func TestNormalize(t *testing.T) {
	service, _ := newTestService(t)

	tests := []struct {
		name     string
		header   []string
		rows     [][]string
		validate func(t *testing.T, records []*domain.SaleRecord)
	}{
		{
			name:   "Linha da fonte com formatação monetária",
			header: sourceHeader(),
			rows: [][]string{
				{"Jehu Rudeforth", "UK", "Mint Chip Choco", "04-Jan-22", "$5,320 ", "180"},
			},
			validate: func(t *testing.T, records []*domain.SaleRecord) {
				require.Len(t, records, 1)
				record := records[0]
				assert.Equal(t, "Jehu Rudeforth", record.SalesPerson)
				assert.Equal(t, 5320.0, record.Amount)
				assert.Equal(t, 180, record.BoxesShipped)
				assert.Equal(t, time.Date(2022, time.January, 4, 0, 0, 0, 0, time.UTC), record.Date)
				// 180 caixas e 5320: atacado pelos dois critérios
				assert.Equal(t, domain.SaleTypeWholesale, record.SaleType)
			},
		},
		{
			name:   "Venda pequena classificada como varejo",
			header: sourceHeader(),
			rows: [][]string{
				{"Van Tuxwell", "India", "99% Dark & Pure", "01-Aug-22", "$987", "12"},
			},
			validate: func(t *testing.T, records []*domain.SaleRecord) {
				require.Len(t, records, 1)
				assert.Equal(t, domain.SaleTypeRetail, records[0].SaleType)
			},
		},
		{
			name:   "Tipo válido vindo da fonte é preservado, não recalculado",
			header: append(sourceHeader(), "Sale Type"),
			rows: [][]string{
				// Pela regra padrão seria varejo; a fonte traz atacado
				{"Gigi Bohling", "Japan", "Milk Bars", "12-Mar-22", "$100", "1", "Wholesale"},
			},
			validate: func(t *testing.T, records []*domain.SaleRecord) {
				require.Len(t, records, 1)
				assert.Equal(t, domain.SaleTypeWholesale, records[0].SaleType)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := service.Normalize(tt.header, tt.rows)
			require.NoError(t, err)
			tt.validate(t, records)
		})
	}
}

func TestNormalizeIdempotence(t *testing.T) {
	service, _ := newTestService(t)

	records, err := service.Normalize(sourceHeader(), [][]string{
		{"Kelci Crowthe", "UK", "85% Dark Bars", "10-Jun-22", "$7,832", "44"},
		{"Brien Boise", "USA", "Milk Bars", "25-Jun-22", "$542", "190"},
	})
	require.NoError(t, err)

	// Reapresenta a saída canônica como entrada
	canonicalHeader := []string{"sales_person", "country", "product", "date", "amount", "boxes_shipped", "sale_type"}
	canonicalRows := make([][]string, 0, len(records))
	for _, record := range records {
		canonicalRows = append(canonicalRows, []string{
			record.SalesPerson,
			record.Country,
			record.Product,
			record.Date.Format(time.DateOnly),
			"4000", // valor abaixo do limiar: o tipo da fonte deve prevalecer
			"50",
			string(record.SaleType),
		})
	}

	again, err := service.Normalize(canonicalHeader, canonicalRows)
	require.NoError(t, err)
	require.Len(t, again, len(records))

	for i, record := range again {
		assert.Equal(t, records[i].SalesPerson, record.SalesPerson)
		assert.Equal(t, records[i].Date, record.Date)
		assert.Equal(t, records[i].SaleType, record.SaleType)
	}
}

func TestNormalizeErrors(t *testing.T) {
	service, _ := newTestService(t)

	tests := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{
			name:   "Coluna obrigatória ausente",
			header: []string{"Sales Person", "Country", "Product", "Date", "Amount"},
			rows:   [][]string{},
		},
		{
			name:   "Valor monetário inválido",
			header: sourceHeader(),
			rows: [][]string{
				{"Van Tuxwell", "India", "Milk Bars", "01-Aug-22", "abc", "12"},
			},
		},
		{
			name:   "Valor monetário negativo",
			header: sourceHeader(),
			rows: [][]string{
				{"Van Tuxwell", "India", "Milk Bars", "01-Aug-22", "-$10", "12"},
			},
		},
		{
			name:   "Data inválida",
			header: sourceHeader(),
			rows: [][]string{
				{"Van Tuxwell", "India", "Milk Bars", "2022/08/01", "$10", "12"},
			},
		},
		{
			name:   "Caixas não numéricas",
			header: sourceHeader(),
			rows: [][]string{
				{"Van Tuxwell", "India", "Milk Bars", "01-Aug-22", "$10", "doze"},
			},
		},
		{
			name:   "Tipo de venda desconhecido na fonte",
			header: append(sourceHeader(), "Sale Type"),
			rows: [][]string{
				{"Van Tuxwell", "India", "Milk Bars", "01-Aug-22", "$10", "12", "Varejo"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Normalize(tt.header, tt.rows)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInput)
		})
	}
}

func TestIngest(t *testing.T) {
	service, saleRepo := newTestService(t)

	csv := strings.Join([]string{
		"Sales Person,Country,Product,Date,Amount,Boxes Shipped",
		`Jehu Rudeforth,UK,Mint Chip Choco,04-Jan-22,"$5,320",180`,
		"Van Tuxwell,India,85% Dark Bars,01-Aug-22,$987,12",
	}, "\n")

	saleRepo.EXPECT().
		ReplaceAll(gomock.Any(), gomock.Len(2)).
		Return(nil)

	records, err := service.Ingest(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestIngestEmptyFile(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Ingest(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInput)
}
