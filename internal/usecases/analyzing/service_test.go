package analyzing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rmonteiro89/sales-analytics-api/infrastructure/repository"
	"github.com/rmonteiro89/sales-analytics-api/infrastructure/repository/mocks"
	"github.com/rmonteiro89/sales-analytics-api/internal/config"
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/internal/session"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/detecting"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/forecasting"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/querying"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/scoping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// stubIngester simula a ingestão da fonte bruta, contando as execuções
type stubIngester struct {
	records []*domain.SaleRecord
	calls   int
}

func (s *stubIngester) Normalize(header []string, rows [][]string) ([]*domain.SaleRecord, error) {
	return s.records, nil
}

func (s *stubIngester) Ingest(ctx context.Context, r io.Reader) ([]*domain.SaleRecord, error) {
	s.calls++
	return s.records, nil
}

func (s *stubIngester) IngestFile(ctx context.Context, path string) ([]*domain.SaleRecord, error) {
	s.calls++
	return s.records, nil
}

func canonicalSet() []*domain.SaleRecord {
	return []*domain.SaleRecord{
		{ID: 1, SalesPerson: "Jehu Rudeforth", Country: "UK", Product: "Mint Chip Choco", Date: time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC), Amount: 5320, BoxesShipped: 180, SaleType: domain.SaleTypeWholesale},
		{ID: 2, SalesPerson: "Van Tuxwell", Country: "India", Product: "85% Dark Bars", Date: time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC), Amount: 7896, BoxesShipped: 94, SaleType: domain.SaleTypeWholesale},
		{ID: 3, SalesPerson: "Jehu Rudeforth", Country: "USA", Product: "Milk Bars", Date: time.Date(2022, 3, 7, 0, 0, 0, 0, time.UTC), Amount: 450, BoxesShipped: 9, SaleType: domain.SaleTypeRetail},
	}
}

func newTestAnalyzer(t *testing.T) (Analyzer, *mocks.MockSaleRepository, *stubIngester, *session.Manager) {
	ctrl := gomock.NewController(t)
	saleRepo := mocks.NewMockSaleRepository(ctrl)

	ingester := &stubIngester{records: canonicalSet()}

	cfg := &config.Config{}
	cfg.Ingestion.CSVPath = "sales.csv"

	service := NewService(
		saleRepo,
		ingester,
		scoping.NewService(),
		querying.NewService(),
		forecasting.NewService(),
		detecting.NewService(),
		cfg,
	)

	return service, saleRepo, ingester, session.NewManager()
}

func ownerSession(t *testing.T, sessions *session.Manager) *session.Session {
	sess, err := sessions.Create(domain.Identity{Username: "owner", Role: domain.RoleOwner})
	require.NoError(t, err)
	return sess
}

func repSession(t *testing.T, sessions *session.Manager, username string) *session.Session {
	sess, err := sessions.Create(domain.Identity{Username: username, Role: domain.RoleSalesRep})
	require.NoError(t, err)
	return sess
}

func TestRecordsLoadOnce(t *testing.T) {
	service, saleRepo, ingester, sessions := newTestAnalyzer(t)
	sess := ownerSession(t, sessions)
	ctx := context.Background()

	// A primeira leitura ingere a fonte e carrega o cache; a segunda não
	// toca nem a fonte nem o repositório
	saleRepo.EXPECT().ListSales().Return(canonicalSet(), nil).Times(1)

	records, err := service.Records(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 1, ingester.calls)

	records, err = service.Records(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 1, ingester.calls)
}

func TestRecordsScopedBySession(t *testing.T) {
	service, saleRepo, _, sessions := newTestAnalyzer(t)
	sess := repSession(t, sessions, "Jehu Rudeforth")

	saleRepo.EXPECT().ListSales().Return(canonicalSet(), nil)

	records, err := service.Records(context.Background(), sess)
	require.NoError(t, err)

	// O cache guarda o conjunto inteiro; a visão devolvida é escopada
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, int64(3), records[1].ID)
}

func TestMutationsAreOwnerOnly(t *testing.T) {
	service, _, ingester, sessions := newTestAnalyzer(t)
	sess := repSession(t, sessions, "Van Tuxwell")
	ctx := context.Background()

	// Nenhuma expectativa no repositório: a autorização falha antes de
	// qualquer acesso ao armazenamento
	_, err := service.CreateSale(ctx, sess, &domain.SaleRecord{SalesPerson: "Van Tuxwell"})
	assert.ErrorIs(t, err, ErrNotAllowed)

	err = service.UpdateSale(ctx, sess, 2, &domain.UpdateSaleRequest{})
	assert.ErrorIs(t, err, ErrNotAllowed)

	err = service.DeleteSale(ctx, sess, 2)
	assert.ErrorIs(t, err, ErrNotAllowed)

	assert.Zero(t, ingester.calls)
}

func TestCreateSaleClassifiesByDefault(t *testing.T) {
	service, saleRepo, _, sessions := newTestAnalyzer(t)
	sess := ownerSession(t, sessions)

	saleRepo.EXPECT().
		CreateSale(gomock.Any()).
		DoAndReturn(func(sale *domain.SaleRecord) (int64, error) {
			// Sem tipo explícito, a regra padrão decide na entrada
			assert.Equal(t, domain.SaleTypeWholesale, sale.SaleType)
			return 42, nil
		})

	id, err := service.CreateSale(context.Background(), sess, &domain.SaleRecord{
		SalesPerson:  "owner",
		Country:      "UK",
		Product:      "Milk Bars",
		Date:         time.Date(2022, 5, 2, 0, 0, 0, 0, time.UTC),
		Amount:       9000,
		BoxesShipped: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestCreateSaleRejectsNegativeValues(t *testing.T) {
	service, _, _, sessions := newTestAnalyzer(t)
	sess := ownerSession(t, sessions)

	_, err := service.CreateSale(context.Background(), sess, &domain.SaleRecord{
		SalesPerson: "owner",
		Amount:      -1,
	})
	assert.Error(t, err)
}

func TestMutationInvalidatesSessionCache(t *testing.T) {
	service, saleRepo, ingester, sessions := newTestAnalyzer(t)
	sess := ownerSession(t, sessions)
	ctx := context.Background()

	firstLoad := saleRepo.EXPECT().ListSales().Return(canonicalSet(), nil)

	_, err := service.Records(ctx, sess)
	require.NoError(t, err)

	saleRepo.EXPECT().DeleteSale(int64(3)).Return(nil)
	require.NoError(t, service.DeleteSale(ctx, sess, 3))

	// A recarga pós-mutação lê o repositório, não a fonte bruta
	saleRepo.EXPECT().ListSales().Return(canonicalSet()[:2], nil).After(firstLoad)

	records, err := service.Records(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, ingester.calls)
}

func TestRejectedUpdateLeavesSetUnchanged(t *testing.T) {
	service, saleRepo, _, sessions := newTestAnalyzer(t)
	sess := ownerSession(t, sessions)
	ctx := context.Background()

	saleRepo.EXPECT().ListSales().Return(canonicalSet(), nil).Times(1)

	_, err := service.Records(ctx, sess)
	require.NoError(t, err)

	saleRepo.EXPECT().GetSaleByID(int64(99)).Return(nil, repository.ErrSaleNotFound)

	err = service.UpdateSale(ctx, sess, 99, &domain.UpdateSaleRequest{})
	assert.ErrorIs(t, err, repository.ErrSaleNotFound)

	// O cache continua válido: nenhuma recarga acontece
	records, err := service.Records(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestUpdateSaleKeepsManualOverride(t *testing.T) {
	service, saleRepo, _, sessions := newTestAnalyzer(t)
	sess := ownerSession(t, sessions)
	ctx := context.Background()

	t.Run("Sem sale_type no pedido o tipo existente é mantido", func(t *testing.T) {
		existing := &domain.SaleRecord{ID: 2, SalesPerson: "Van Tuxwell", Amount: 7896, BoxesShipped: 94, SaleType: domain.SaleTypeWholesale}
		saleRepo.EXPECT().GetSaleByID(int64(2)).Return(existing, nil)

		newAmount := 100.0
		saleRepo.EXPECT().
			UpdateSale(int64(2), gomock.Any()).
			DoAndReturn(func(id int64, sale *domain.SaleRecord) error {
				// O valor caiu abaixo do limiar, mas o tipo não é recalculado
				assert.Equal(t, 100.0, sale.Amount)
				assert.Equal(t, domain.SaleTypeWholesale, sale.SaleType)
				return nil
			})

		err := service.UpdateSale(ctx, sess, 2, &domain.UpdateSaleRequest{Amount: &newAmount})
		require.NoError(t, err)
	})

	t.Run("sale_type presente é uma sobrescrita manual", func(t *testing.T) {
		existing := &domain.SaleRecord{ID: 1, Amount: 20000, BoxesShipped: 500, SaleType: domain.SaleTypeWholesale}
		saleRepo.EXPECT().GetSaleByID(int64(1)).Return(existing, nil)

		override := domain.SaleTypeRetail
		saleRepo.EXPECT().
			UpdateSale(int64(1), gomock.Any()).
			DoAndReturn(func(id int64, sale *domain.SaleRecord) error {
				assert.Equal(t, domain.SaleTypeRetail, sale.SaleType)
				return nil
			})

		err := service.UpdateSale(ctx, sess, 1, &domain.UpdateSaleRequest{SaleType: &override})
		require.NoError(t, err)
	})
}

func TestQueryDefaultOrderIsInsertionOrder(t *testing.T) {
	service, saleRepo, _, sessions := newTestAnalyzer(t)
	sess := ownerSession(t, sessions)

	saleRepo.EXPECT().ListSales().Return(canonicalSet(), nil)

	records, err := service.Query(context.Background(), sess, nil, "", domain.SortAscending)
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, int64(2), records[1].ID)
	assert.Equal(t, int64(3), records[2].ID)
}

func TestForecastOverScopedSet(t *testing.T) {
	service, saleRepo, _, sessions := newTestAnalyzer(t)

	// O vendedor só tem um mês de histórico: a projeção falha para ele,
	// ainda que o conjunto completo tenha meses suficientes
	sess := repSession(t, sessions, "Van Tuxwell")

	saleRepo.EXPECT().ListSales().Return(canonicalSet(), nil)

	_, err := service.Forecast(context.Background(), sess, nil, domain.MetricAmount, 6)
	assert.ErrorIs(t, err, forecasting.ErrInsufficientData)
}

func TestAnomaliesOverFilteredSet(t *testing.T) {
	service, saleRepo, _, sessions := newTestAnalyzer(t)
	sess := ownerSession(t, sessions)

	set := canonicalSet()
	set[0].Amount = 22000 // acima do limiar

	saleRepo.EXPECT().ListSales().Return(set, nil)

	india := []string{"India"}
	alert, err := service.Anomalies(context.Background(), sess, &domain.Filter{Countries: &india})
	require.NoError(t, err)

	// A anomalia do Reino Unido fica fora do conjunto filtrado
	assert.Zero(t, alert.Count)
}
