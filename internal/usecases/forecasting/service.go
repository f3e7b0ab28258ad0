package forecasting

import (
	"math"
	"sort"
	"time"

	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Forecaster reamostra uma métrica em granularidade mensal e projeta
// períodos futuros por suavização exponencial com tendência aditiva
// (método de Holt), sem componente sazonal
type Forecaster interface {
	ResampleMonthly(records []*domain.SaleRecord, metric domain.Metric) []domain.MonthlyPoint
	Forecast(records []*domain.SaleRecord, metric domain.Metric, periods int) (*domain.ForecastResult, error)
}

type Service struct{}

func NewService() Forecaster {
	return &Service{}
}

// ResampleMonthly soma a métrica por mês do calendário, em ordem
// cronológica. Meses sem observação entre o primeiro e o último são
// preenchidos com zero para manter a série igualmente espaçada.
func (s *Service) ResampleMonthly(records []*domain.SaleRecord, metric domain.Metric) []domain.MonthlyPoint {
	sums := make(map[int64]float64)
	for _, record := range records {
		month := utils.TruncateToMonth(record.Date)
		sums[month.Unix()] += metric.ValueOf(record)
	}

	if len(sums) == 0 {
		return []domain.MonthlyPoint{}
	}

	keys := make([]int64, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	first := time.Unix(keys[0], 0).UTC()
	last := time.Unix(keys[len(keys)-1], 0).UTC()

	points := make([]domain.MonthlyPoint, 0, len(keys))
	for month := first; !month.After(last); month = month.AddDate(0, 1, 0) {
		points = append(points, domain.MonthlyPoint{
			Month: month,
			Value: sums[month.Unix()],
		})
	}

	return points
}

// Forecast projeta a métrica por `periods` meses além do último mês
// observado. Com menos de dois meses distintos retorna ErrInsufficientData
// junto do histórico disponível, sem produzir projeção.
func (s *Service) Forecast(records []*domain.SaleRecord, metric domain.Metric, periods int) (*domain.ForecastResult, error) {
	historical := s.ResampleMonthly(records, metric)

	result := &domain.ForecastResult{
		Historical: domain.LabeledSeries{
			Kind:   domain.SeriesHistorical,
			Metric: metric,
			Points: historical,
		},
		Forecast: domain.LabeledSeries{
			Kind:   domain.SeriesForecast,
			Metric: metric,
			Points: []domain.MonthlyPoint{},
		},
	}

	if len(historical) < 2 {
		return result, ErrInsufficientData
	}

	values := make([]float64, len(historical))
	for i, point := range historical {
		values[i] = point.Value
	}

	level, trend, alpha, beta := fitHolt(values)
	logrus.Debugf("Modelo de Holt ajustado: alpha=%.2f beta=%.2f nível=%.2f tendência=%.2f", alpha, beta, level, trend)

	lastMonth := historical[len(historical)-1].Month
	points := make([]domain.MonthlyPoint, 0, periods)
	for h := 1; h <= periods; h++ {
		points = append(points, domain.MonthlyPoint{
			// Rótulos começam no primeiro dia do mês seguinte ao último
			// histórico, espaçados exatamente um mês
			Month: lastMonth.AddDate(0, h, 0),
			Value: level + float64(h)*trend,
		})
	}

	result.Forecast.Points = points
	return result, nil
}

// fitHolt ajusta a suavização exponencial com tendência aditiva buscando
// os parâmetros que minimizam a soma dos erros quadráticos um passo à
// frente. Retorna o nível e a tendência finais do melhor ajuste.
func fitHolt(values []float64) (level, trend, bestAlpha, bestBeta float64) {
	bestSSE := math.Inf(1)

	for a := 0.05; a <= 0.951; a += 0.05 {
		for b := 0.05; b <= 0.951; b += 0.05 {
			l, t, sse := runHolt(values, a, b)
			if sse < bestSSE {
				bestSSE = sse
				level, trend = l, t
				bestAlpha, bestBeta = a, b
			}
		}
	}

	return level, trend, bestAlpha, bestBeta
}

// runHolt executa uma passada da suavização com os parâmetros dados.
// Inicialização padrão: nível = primeiro valor, tendência = primeira diferença.
func runHolt(values []float64, alpha, beta float64) (level, trend, sse float64) {
	level = values[0]
	trend = values[1] - values[0]

	for _, value := range values[1:] {
		predicted := level + trend
		err := value - predicted
		sse += err * err

		previousLevel := level
		level = alpha*value + (1-alpha)*predicted
		trend = beta*(level-previousLevel) + (1-beta)*trend
	}

	return level, trend, sse
}
