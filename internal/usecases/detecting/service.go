package detecting

import (
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/pkg/utils"
	"github.com/samber/lo"
)

// Limiar fixo de venda fora do padrão (estritamente maior)
const AnomalyAmountThreshold = 15000.0

// Limiar de queda mês a mês em percentual (variações abaixo disso alertam)
const TrendDropThresholdPct = -50.0

// Detector sinaliza vendas fora do padrão e colapsos mês a mês.
// Detectores nunca falham nem mutam dados: ausência de anomalias é
// simplesmente um resultado vazio, e o descarte de um alerta é uma ação
// transitória da camada de exibição, sem efeito persistido.
type Detector interface {
	DetectAnomalies(records []*domain.SaleRecord) []*domain.SaleRecord
	DetectTrendDrops(series []domain.MonthlyPoint) []domain.TrendDrop
	BuildAnomalyAlert(records []*domain.SaleRecord) *domain.AnomalyAlert
	BuildTrendDropAlert(series []domain.MonthlyPoint) *domain.TrendDropAlert
}

type Service struct{}

func NewService() Detector {
	return &Service{}
}

// DetectAnomalies retorna os registros com valor acima do limiar.
// Desigualdade estrita: exatamente 15000 não é anomalia.
func (s *Service) DetectAnomalies(records []*domain.SaleRecord) []*domain.SaleRecord {
	return lo.Filter(records, func(record *domain.SaleRecord, _ int) bool {
		return record.Amount > AnomalyAmountThreshold
	})
}

// DetectTrendDrops sinaliza, em ordem cronológica, os meses cuja variação
// percentual sobre o mês anterior fica abaixo do limiar. O primeiro mês
// nunca é sinalizado (não há anterior para comparar). Quando o mês
// anterior soma zero a variação percentual é indefinida: tratamos como
// "sem queda possível" e seguimos adiante, nunca como erro.
func (s *Service) DetectTrendDrops(series []domain.MonthlyPoint) []domain.TrendDrop {
	drops := make([]domain.TrendDrop, 0)

	for i := 1; i < len(series); i++ {
		prev := series[i-1].Value
		if prev == 0 {
			continue
		}

		changePct := ((series[i].Value - prev) / prev) * 100
		if changePct < TrendDropThresholdPct {
			drops = append(drops, domain.TrendDrop{
				Month:     series[i].Month,
				ChangePct: utils.RoundWithTwoDecimalPlace(changePct),
			})
		}
	}

	return drops
}

// BuildAnomalyAlert monta o payload de alerta com um token de descarte
func (s *Service) BuildAnomalyAlert(records []*domain.SaleRecord) *domain.AnomalyAlert {
	anomalies := s.DetectAnomalies(records)
	id, _ := utils.GenerateID()

	return &domain.AnomalyAlert{
		ID:      id,
		Count:   len(anomalies),
		Records: anomalies,
	}
}

// BuildTrendDropAlert monta o payload de alerta de quedas mês a mês
func (s *Service) BuildTrendDropAlert(series []domain.MonthlyPoint) *domain.TrendDropAlert {
	drops := s.DetectTrendDrops(series)
	id, _ := utils.GenerateID()

	return &domain.TrendDropAlert{
		ID:    id,
		Count: len(drops),
		Drops: drops,
	}
}
