package detecting

import (
	"testing"
	"time"

	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAnomalies(t *testing.T) {
	service := NewService()

	records := []*domain.SaleRecord{
		{ID: 1, Amount: 15000.00},
		{ID: 2, Amount: 15000.01},
		{ID: 3, Amount: 22050.00},
		{ID: 4, Amount: 150.00},
	}

	anomalies := service.DetectAnomalies(records)

	// Desigualdade estrita: exatamente 15000 não é anomalia
	require.Len(t, anomalies, 2)
	assert.Equal(t, int64(2), anomalies[0].ID)
	assert.Equal(t, int64(3), anomalies[1].ID)
}

func TestDetectTrendDrops(t *testing.T) {
	service := NewService()

	series := func(values ...float64) []domain.MonthlyPoint {
		points := make([]domain.MonthlyPoint, 0, len(values))
		for i, value := range values {
			points = append(points, domain.MonthlyPoint{
				Month: time.Date(2022, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
				Value: value,
			})
		}
		return points
	}

	tests := []struct {
		name     string
		series   []domain.MonthlyPoint
		validate func(t *testing.T, drops []domain.TrendDrop)
	}{
		{
			name:   "Queda de 60% é sinalizada",
			series: series(1000, 1000, 400),
			validate: func(t *testing.T, drops []domain.TrendDrop) {
				require.Len(t, drops, 1)
				assert.Equal(t, time.March, drops[0].Month.Month())
				assert.Equal(t, -60.0, drops[0].ChangePct)
			},
		},
		{
			name:   "Queda de 40% fica abaixo do limiar",
			series: series(1000, 1000, 600),
			validate: func(t *testing.T, drops []domain.TrendDrop) {
				assert.Empty(t, drops)
			},
		},
		{
			name:   "Queda de exatamente 50% não sinaliza (desigualdade estrita)",
			series: series(1000, 500),
			validate: func(t *testing.T, drops []domain.TrendDrop) {
				assert.Empty(t, drops)
			},
		},
		{
			name:   "Mês anterior zerado não tem queda possível",
			series: series(0, 1000, 100),
			validate: func(t *testing.T, drops []domain.TrendDrop) {
				// Fev sobre jan é indefinido e pulado; mar sobre fev cai 90%
				require.Len(t, drops, 1)
				assert.Equal(t, time.March, drops[0].Month.Month())
				assert.Equal(t, -90.0, drops[0].ChangePct)
			},
		},
		{
			name:   "Primeiro mês nunca é sinalizado",
			series: series(100),
			validate: func(t *testing.T, drops []domain.TrendDrop) {
				assert.Empty(t, drops)
			},
		},
		{
			name:   "Série vazia produz resultado vazio, não erro",
			series: series(),
			validate: func(t *testing.T, drops []domain.TrendDrop) {
				assert.Empty(t, drops)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, service.DetectTrendDrops(tt.series))
		})
	}
}

func TestBuildAlerts(t *testing.T) {
	service := NewService()

	t.Run("Alerta de anomalias carrega contagem e token de descarte", func(t *testing.T) {
		alert := service.BuildAnomalyAlert([]*domain.SaleRecord{
			{ID: 1, Amount: 20000},
			{ID: 2, Amount: 10},
		})

		require.NotNil(t, alert)
		assert.NotEmpty(t, alert.ID)
		assert.Equal(t, 1, alert.Count)
		require.Len(t, alert.Records, 1)
	})

	t.Run("Alerta de quedas com série sem quedas", func(t *testing.T) {
		alert := service.BuildTrendDropAlert([]domain.MonthlyPoint{
			{Month: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), Value: 100},
			{Month: time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC), Value: 90},
		})

		require.NotNil(t, alert)
		assert.NotEmpty(t, alert.ID)
		assert.Zero(t, alert.Count)
		assert.Empty(t, alert.Drops)
	})
}
