package forecasting

import (
	"testing"
	"time"

	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestResampleMonthly(t *testing.T) {
	service := NewService()

	t.Run("Soma por mês em ordem cronológica", func(t *testing.T) {
		records := []*domain.SaleRecord{
			{Date: time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC), Amount: 100},
			{Date: time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC), Amount: 50},
			{Date: time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), Amount: 200},
		}

		points := service.ResampleMonthly(records, domain.MetricAmount)

		require.Len(t, points, 3)
		assert.Equal(t, domain.MonthlyPoint{Month: month(2022, time.January), Value: 50}, points[0])
		// Fevereiro sem observações é preenchido com zero
		assert.Equal(t, domain.MonthlyPoint{Month: month(2022, time.February), Value: 0}, points[1])
		assert.Equal(t, domain.MonthlyPoint{Month: month(2022, time.March), Value: 300}, points[2])
	})

	t.Run("Conjunto vazio produz série vazia", func(t *testing.T) {
		points := service.ResampleMonthly(nil, domain.MetricAmount)
		assert.Empty(t, points)
	})
}

func TestForecastInsufficientData(t *testing.T) {
	service := NewService()

	records := []*domain.SaleRecord{
		{Date: time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC), Amount: 100},
		{Date: time.Date(2022, 1, 20, 0, 0, 0, 0, time.UTC), Amount: 50},
	}

	// Dois registros, mas um único mês observado
	result, err := service.Forecast(records, domain.MetricAmount, 6)
	require.ErrorIs(t, err, ErrInsufficientData)

	// O histórico disponível acompanha o erro; a projeção fica vazia
	require.NotNil(t, result)
	assert.Len(t, result.Historical.Points, 1)
	assert.Empty(t, result.Forecast.Points)
}

func TestForecastUpwardTrend(t *testing.T) {
	service := NewService()

	// Série linear crescente: a tendência projetada deve continuar subindo
	records := make([]*domain.SaleRecord, 0, 6)
	for i := 0; i < 6; i++ {
		records = append(records, &domain.SaleRecord{
			Date:   time.Date(2022, time.Month(i+1), 10, 0, 0, 0, 0, time.UTC),
			Amount: float64(1000 + i*100),
		})
	}

	result, err := service.Forecast(records, domain.MetricAmount, 3)
	require.NoError(t, err)

	require.Len(t, result.Forecast.Points, 3)
	assert.Equal(t, domain.SeriesHistorical, result.Historical.Kind)
	assert.Equal(t, domain.SeriesForecast, result.Forecast.Kind)

	lastObserved := result.Historical.Points[len(result.Historical.Points)-1].Value
	previous := lastObserved
	for _, point := range result.Forecast.Points {
		assert.Greater(t, point.Value, previous)
		previous = point.Value
	}
}

func TestForecastLabels(t *testing.T) {
	service := NewService()

	records := []*domain.SaleRecord{
		{Date: time.Date(2022, 10, 5, 0, 0, 0, 0, time.UTC), Amount: 100},
		{Date: time.Date(2022, 11, 5, 0, 0, 0, 0, time.UTC), Amount: 200},
		{Date: time.Date(2022, 12, 5, 0, 0, 0, 0, time.UTC), Amount: 300},
	}

	result, err := service.Forecast(records, domain.MetricAmount, 3)
	require.NoError(t, err)

	// Rótulos começam no mês seguinte ao último observado, espaçados um mês,
	// atravessando a virada do ano
	require.Len(t, result.Forecast.Points, 3)
	assert.Equal(t, month(2023, time.January), result.Forecast.Points[0].Month)
	assert.Equal(t, month(2023, time.February), result.Forecast.Points[1].Month)
	assert.Equal(t, month(2023, time.March), result.Forecast.Points[2].Month)
}
