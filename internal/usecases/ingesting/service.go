package ingesting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rmonteiro89/sales-analytics-api/infrastructure/repository"
	"github.com/rmonteiro89/sales-analytics-api/internal/config"
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Rótulos canônicos das colunas após a renomeação da fonte
const (
	colSalesPerson  = "sales_person"
	colCountry      = "country"
	colProduct      = "product"
	colDate         = "date"
	colAmount       = "amount"
	colBoxesShipped = "boxes_shipped"
	colSaleType     = "sale_type"
)

// columnAliases mapeia os rótulos da fonte bruta para os nomes canônicos.
// Os nomes canônicos também são aceitos, o que torna a normalização
// idempotente sobre dados já canônicos.
var columnAliases = map[string]string{
	"sales person":  colSalesPerson,
	"sales_person":  colSalesPerson,
	"country":       colCountry,
	"product":       colProduct,
	"date":          colDate,
	"amount":        colAmount,
	"boxes shipped": colBoxesShipped,
	"boxes_shipped": colBoxesShipped,
	"sale type":     colSaleType,
	"sale_type":     colSaleType,
}

var requiredColumns = []string{colSalesPerson, colCountry, colProduct, colDate, colAmount, colBoxesShipped}

// Ingester normaliza linhas brutas de vendas e sincroniza o conjunto
// canônico com o repositório em um full replace
type Ingester interface {
	Normalize(header []string, rows [][]string) ([]*domain.SaleRecord, error)
	Ingest(ctx context.Context, r io.Reader) ([]*domain.SaleRecord, error)
	IngestFile(ctx context.Context, path string) ([]*domain.SaleRecord, error)
}

type Service struct {
	saleRepo   repository.SaleRepository
	dateFormat string
}

func NewService(saleRepo repository.SaleRepository, cfg *config.Config) Ingester {
	dateFormat := cfg.Ingestion.DateFormat
	if dateFormat == "" {
		dateFormat = "02-Jan-06"
	}

	return &Service{
		saleRepo:   saleRepo,
		dateFormat: dateFormat,
	}
}

// IngestFile ingere o CSV no caminho informado
func (s *Service) IngestFile(ctx context.Context, path string) ([]*domain.SaleRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir arquivo de ingestão: %w", err)
	}
	defer file.Close()

	return s.Ingest(ctx, file)
}

// Ingest lê as linhas brutas, normaliza e persiste o conjunto canônico
// inteiro no repositório, substituindo o conteúdo anterior
func (s *Service) Ingest(ctx context.Context, r io.Reader) ([]*domain.SaleRecord, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	records, err := s.Normalize(header, rows)
	if err != nil {
		return nil, err
	}

	if err := s.saleRepo.ReplaceAll(ctx, records); err != nil {
		return nil, fmt.Errorf("erro ao sincronizar conjunto canônico: %w", err)
	}

	logrus.Infof("Ingestão concluída: %d registros normalizados e persistidos", len(records))
	return records, nil
}

// Normalize converte as linhas brutas no conjunto canônico de registros.
// Normalizar dados já canônicos é um no-op (propriedade testada).
func (s *Service) Normalize(header []string, rows [][]string) ([]*domain.SaleRecord, error) {
	colIndex, err := buildColumnIndex(header)
	if err != nil {
		return nil, err
	}

	_, hasSaleType := colIndex[colSaleType]

	records := make([]*domain.SaleRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2 // linha 1 é o cabeçalho

		get := func(col string) string {
			idx := colIndex[col]
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		amount, err := cleanAmount(get(colAmount))
		if err != nil {
			return nil, newMalformedError(line, colAmount, err.Error())
		}

		date, err := s.parseDate(get(colDate))
		if err != nil {
			return nil, newMalformedError(line, colDate, err.Error())
		}

		boxes, err := strconv.Atoi(get(colBoxesShipped))
		if err != nil || boxes < 0 {
			return nil, newMalformedError(line, colBoxesShipped, fmt.Sprintf("valor inválido %q", get(colBoxesShipped)))
		}

		record := &domain.SaleRecord{
			SalesPerson:  get(colSalesPerson),
			Country:      get(colCountry),
			Product:      get(colProduct),
			Date:         date,
			Amount:       amount,
			BoxesShipped: boxes,
		}

		// A regra padrão só classifica quando a fonte não traz um tipo
		// válido; re-ingestões de dados canônicos preservam o tipo vindo
		// da fonte (inclusive sobrescritas manuais já materializadas)
		if hasSaleType && get(colSaleType) != "" {
			saleType, err := domain.ParseSaleType(get(colSaleType))
			if err != nil {
				return nil, newMalformedError(line, colSaleType, err.Error())
			}
			record.SaleType = saleType
		} else {
			record.SaleType = domain.ClassifySale(boxes, amount)
		}

		records = append(records, record)
	}

	return records, nil
}

// readCSV separa cabeçalho e linhas de dados da fonte
func readCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, newMalformedError(1, "", "arquivo vazio")
	}
	if err != nil {
		return nil, nil, newMalformedError(1, "", fmt.Sprintf("erro ao ler cabeçalho: %v", err))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, newMalformedError(1, "", fmt.Sprintf("erro ao ler linhas: %v", err))
	}

	return header, rows, nil
}

// buildColumnIndex resolve os aliases da fonte para os nomes canônicos e
// falha quando uma coluna obrigatória está ausente
func buildColumnIndex(header []string) (map[string]int, error) {
	colIndex := make(map[string]int, len(header))
	for i, label := range header {
		canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(label))]
		if !ok {
			continue
		}
		colIndex[canonical] = i
	}

	for _, required := range requiredColumns {
		if _, ok := colIndex[required]; !ok {
			return nil, newMalformedError(1, required, "coluna obrigatória ausente")
		}
	}

	return colIndex, nil
}

// cleanAmount remove a formatação monetária ($, separadores de milhar e
// espaços) antes de interpretar o valor decimal
func cleanAmount(raw string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("valor monetário vazio")
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("valor monetário inválido %q", raw)
	}
	if amount < 0 {
		return 0, fmt.Errorf("valor monetário negativo %q", raw)
	}

	return amount, nil
}

// parseDate aceita o formato da fonte (dia-mês abreviado-ano curto) e o
// formato canônico ISO, garantindo a idempotência da normalização
func (s *Service) parseDate(raw string) (time.Time, error) {
	if date, err := time.Parse(s.dateFormat, raw); err == nil {
		return utils.TruncateToDay(date), nil
	}

	date, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("data inválida %q", raw)
	}

	return utils.TruncateToDay(date), nil
}
