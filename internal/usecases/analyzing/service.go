package analyzing

import (
	"context"
	"fmt"
	"sync"

	"github.com/rmonteiro89/sales-analytics-api/infrastructure/repository"
	"github.com/rmonteiro89/sales-analytics-api/internal/config"
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/internal/session"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/detecting"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/forecasting"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/ingesting"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/querying"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/scoping"
	"github.com/rmonteiro89/sales-analytics-api/pkg/log"
	"github.com/rmonteiro89/sales-analytics-api/pkg/utils"
)

// Analyzer é o motor analítico da sessão: toda operação recebe a sessão
// explícita e roda sobre o conjunto escopado pela identidade dela. Leituras
// usam o cache da sessão; mutações são exclusivas do Owner e invalidam o
// cache local (consistência leia-suas-escritas por sessão).
type Analyzer interface {
	Records(ctx context.Context, sess *session.Session) ([]*domain.SaleRecord, error)
	Query(ctx context.Context, sess *session.Session, filter *domain.Filter, sortKey domain.SortKey, order domain.SortOrder) ([]*domain.SaleRecord, error)
	TopN(ctx context.Context, sess *session.Session, filter *domain.Filter, groupKey domain.GroupKey, metric domain.Metric, n int) ([]domain.GroupTotal, error)
	GroupSum(ctx context.Context, sess *session.Session, filter *domain.Filter, groupKey domain.GroupKey, metric domain.Metric) ([]domain.GroupTotal, error)
	ValueCounts(ctx context.Context, sess *session.Session, filter *domain.Filter, field string) ([]domain.ValueCount, error)
	SeasonalAverage(ctx context.Context, sess *session.Session, filter *domain.Filter, product string, metric domain.Metric) ([]domain.MonthlyPoint, error)
	Forecast(ctx context.Context, sess *session.Session, filter *domain.Filter, metric domain.Metric, periods int) (*domain.ForecastResult, error)
	Anomalies(ctx context.Context, sess *session.Session, filter *domain.Filter) (*domain.AnomalyAlert, error)
	TrendDrops(ctx context.Context, sess *session.Session, filter *domain.Filter, metric domain.Metric) (*domain.TrendDropAlert, error)
	ExportCSV(ctx context.Context, sess *session.Session, filter *domain.Filter, sortKey domain.SortKey, order domain.SortOrder) ([]byte, error)
	CreateSale(ctx context.Context, sess *session.Session, sale *domain.SaleRecord) (int64, error)
	UpdateSale(ctx context.Context, sess *session.Session, id int64, req *domain.UpdateSaleRequest) error
	DeleteSale(ctx context.Context, sess *session.Session, id int64) error
}

type Service struct {
	saleRepo   repository.SaleRepository
	ingester   ingesting.Ingester
	scoper     scoping.Resolver
	querier    querying.Querier
	forecaster forecasting.Forecaster
	detector   detecting.Detector
	cfg        *config.Config

	// A ingestão da fonte bruta roda uma única vez por processo; a partir
	// daí toda carga de sessão lê direto do repositório
	sourceMu     sync.Mutex
	sourceLoaded bool
}

func NewService(
	saleRepo repository.SaleRepository,
	ingester ingesting.Ingester,
	scoper scoping.Resolver,
	querier querying.Querier,
	forecaster forecasting.Forecaster,
	detector detecting.Detector,
	cfg *config.Config,
) Analyzer {
	return &Service{
		saleRepo:   saleRepo,
		ingester:   ingester,
		scoper:     scoper,
		querier:    querier,
		forecaster: forecaster,
		detector:   detector,
		cfg:        cfg,
	}
}

// ensureSource garante que o conjunto canônico foi derivado da fonte bruta
// ao menos uma vez no processo
func (s *Service) ensureSource(ctx context.Context) error {
	s.sourceMu.Lock()
	defer s.sourceMu.Unlock()

	if s.sourceLoaded {
		return nil
	}

	if _, err := s.ingester.IngestFile(ctx, s.cfg.Ingestion.CSVPath); err != nil {
		return fmt.Errorf("erro na ingestão inicial da fonte: %w", err)
	}

	s.sourceLoaded = true
	return nil
}

// Records devolve o conjunto canônico visível pela sessão. A primeira
// leitura da sessão carrega o cache; após uma mutação local a próxima
// leitura recarrega do repositório. Leituras seguintes não tocam a fonte.
func (s *Service) Records(ctx context.Context, sess *session.Session) ([]*domain.SaleRecord, error) {
	if records, ok := sess.Records(); ok {
		return s.scoper.Scope(records, sess.Identity), nil
	}

	if err := s.ensureSource(ctx); err != nil {
		return nil, err
	}

	records, err := s.saleRepo.ListSales()
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar conjunto canônico: %w", err)
	}

	sess.SetRecords(records)
	log.ForContext(ctx).Debugf("Cache da sessão %s carregado com %d registros", sess.ID, len(records))

	return s.scoper.Scope(records, sess.Identity), nil
}

// Query aplica o escopo, depois os filtros e por fim a ordenação
func (s *Service) Query(ctx context.Context, sess *session.Session, filter *domain.Filter, sortKey domain.SortKey, order domain.SortOrder) ([]*domain.SaleRecord, error) {
	scoped, err := s.Records(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.querier.Apply(scoped, filter, sortKey, order), nil
}

// filtered devolve o conjunto escopado e filtrado, na ordem original.
// Toda agregação, projeção e detecção parte daqui.
func (s *Service) filtered(ctx context.Context, sess *session.Session, filter *domain.Filter) ([]*domain.SaleRecord, error) {
	scoped, err := s.Records(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.querier.Filter(scoped, filter), nil
}

func (s *Service) TopN(ctx context.Context, sess *session.Session, filter *domain.Filter, groupKey domain.GroupKey, metric domain.Metric, n int) ([]domain.GroupTotal, error) {
	records, err := s.filtered(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	return s.querier.TopN(records, groupKey, metric, n), nil
}

func (s *Service) GroupSum(ctx context.Context, sess *session.Session, filter *domain.Filter, groupKey domain.GroupKey, metric domain.Metric) ([]domain.GroupTotal, error) {
	records, err := s.filtered(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	return s.querier.GroupSum(records, groupKey, metric), nil
}

func (s *Service) ValueCounts(ctx context.Context, sess *session.Session, filter *domain.Filter, field string) ([]domain.ValueCount, error) {
	records, err := s.filtered(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	return s.querier.ValueCounts(records, field)
}

func (s *Service) SeasonalAverage(ctx context.Context, sess *session.Session, filter *domain.Filter, product string, metric domain.Metric) ([]domain.MonthlyPoint, error) {
	records, err := s.filtered(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	return s.querier.MonthlyAverage(records, product, metric), nil
}

// Forecast projeta a métrica sobre o conjunto escopado e filtrado.
// ErrInsufficientData sobe junto do histórico disponível.
func (s *Service) Forecast(ctx context.Context, sess *session.Session, filter *domain.Filter, metric domain.Metric, periods int) (*domain.ForecastResult, error) {
	records, err := s.filtered(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	return s.forecaster.Forecast(records, metric, periods)
}

func (s *Service) Anomalies(ctx context.Context, sess *session.Session, filter *domain.Filter) (*domain.AnomalyAlert, error) {
	records, err := s.filtered(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	return s.detector.BuildAnomalyAlert(records), nil
}

func (s *Service) TrendDrops(ctx context.Context, sess *session.Session, filter *domain.Filter, metric domain.Metric) (*domain.TrendDropAlert, error) {
	records, err := s.filtered(ctx, sess, filter)
	if err != nil {
		return nil, err
	}

	series := s.forecaster.ResampleMonthly(records, metric)
	return s.detector.BuildTrendDropAlert(series), nil
}

// ExportCSV serializa o conjunto escopado, filtrado e ordenado
func (s *Service) ExportCSV(ctx context.Context, sess *session.Session, filter *domain.Filter, sortKey domain.SortKey, order domain.SortOrder) ([]byte, error) {
	records, err := s.Query(ctx, sess, filter, sortKey, order)
	if err != nil {
		return nil, err
	}
	return s.querier.ExportCSV(records)
}

// requireOwner é a checagem de autorização de escrita, exaustiva sobre o
// enum de papéis: qualquer papel diferente de Owner falha fechado, antes
// de qualquer acesso ao repositório
func requireOwner(sess *session.Session) error {
	if sess.Identity.Role != domain.RoleOwner {
		return ErrNotAllowed
	}
	return nil
}

// CreateSale insere uma venda individual. Exclusivo do Owner. Sem tipo
// explícito a regra padrão classifica na entrada.
func (s *Service) CreateSale(ctx context.Context, sess *session.Session, sale *domain.SaleRecord) (int64, error) {
	if err := requireOwner(sess); err != nil {
		return 0, err
	}

	if sale.Amount < 0 || sale.BoxesShipped < 0 {
		return 0, fmt.Errorf("%w: valores negativos", ingesting.ErrMalformedInput)
	}

	sale.Date = utils.TruncateToDay(sale.Date)
	if sale.SaleType == "" {
		sale.SaleType = domain.ClassifySale(sale.BoxesShipped, sale.Amount)
	} else if _, err := domain.ParseSaleType(string(sale.SaleType)); err != nil {
		return 0, fmt.Errorf("%w: %v", ingesting.ErrMalformedInput, err)
	}

	id, err := s.saleRepo.CreateSale(sale)
	if err != nil {
		return 0, err
	}

	sess.Invalidate()
	log.ForContext(ctx).Infof("Venda %d criada por %q", id, sess.Identity.Username)
	return id, nil
}

// UpdateSale aplica uma atualização parcial. Exclusivo do Owner. Um
// sale_type presente no pedido é uma sobrescrita manual; na ausência dele
// o tipo existente é mantido, nunca recalculado pela regra padrão.
func (s *Service) UpdateSale(ctx context.Context, sess *session.Session, id int64, req *domain.UpdateSaleRequest) error {
	if err := requireOwner(sess); err != nil {
		return err
	}

	sale, err := s.saleRepo.GetSaleByID(id)
	if err != nil {
		return err
	}

	if req.SalesPerson != nil {
		sale.SalesPerson = *req.SalesPerson
	}
	if req.Country != nil {
		sale.Country = *req.Country
	}
	if req.Product != nil {
		sale.Product = *req.Product
	}
	if req.Date != nil {
		date, err := utils.ParseDate(*req.Date)
		if err != nil {
			return fmt.Errorf("%w: data inválida %q", ingesting.ErrMalformedInput, *req.Date)
		}
		sale.Date = utils.TruncateToDay(date)
	}
	if req.Amount != nil {
		if *req.Amount < 0 {
			return fmt.Errorf("%w: valor negativo", ingesting.ErrMalformedInput)
		}
		sale.Amount = *req.Amount
	}
	if req.BoxesShipped != nil {
		if *req.BoxesShipped < 0 {
			return fmt.Errorf("%w: caixas negativas", ingesting.ErrMalformedInput)
		}
		sale.BoxesShipped = *req.BoxesShipped
	}
	if req.SaleType != nil {
		saleType, err := domain.ParseSaleType(string(*req.SaleType))
		if err != nil {
			return fmt.Errorf("%w: %v", ingesting.ErrMalformedInput, err)
		}
		sale.SaleType = saleType
	}

	if err := s.saleRepo.UpdateSale(id, sale); err != nil {
		return err
	}

	sess.Invalidate()
	log.ForContext(ctx).Infof("Venda %d atualizada por %q", id, sess.Identity.Username)
	return nil
}

// DeleteSale remove uma venda pelo ID. Exclusivo do Owner.
func (s *Service) DeleteSale(ctx context.Context, sess *session.Session, id int64) error {
	if err := requireOwner(sess); err != nil {
		return err
	}

	if err := s.saleRepo.DeleteSale(id); err != nil {
		return err
	}

	sess.Invalidate()
	log.ForContext(ctx).Infof("Venda %d removida por %q", id, sess.Identity.Username)
	return nil
}
