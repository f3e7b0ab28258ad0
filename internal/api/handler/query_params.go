package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rmonteiro89/sales-analytics-api/infrastructure/repository"
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/internal/session"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/analyzing"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/forecasting"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/ingesting"
	"github.com/rmonteiro89/sales-analytics-api/pkg/apiErrors"
	"github.com/rmonteiro89/sales-analytics-api/pkg/middleware"
	"github.com/rmonteiro89/sales-analytics-api/pkg/utils"
	"github.com/sirupsen/logrus"
)

// sessionFromRequest resolve a sessão ativa a partir das claims do token.
// Escreve a resposta de erro e retorna nil quando não há sessão utilizável.
func sessionFromRequest(sessions *session.Manager, w http.ResponseWriter, r *http.Request) *session.Session {
	userClaims, ok := r.Context().Value(middleware.ContextKeyUser).(*domain.Claims)
	if !ok {
		apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
		return nil
	}

	sess, err := sessions.Get(userClaims.SessionID)
	if err != nil {
		apiErrors.WriteError(w, apiErrors.ErrSessionNotFound, "Sessão inexistente ou encerrada", nil)
		return nil
	}

	return sess
}

// parseFilter monta o filtro a partir dos parâmetros da query string.
// Parâmetro ausente vira cláusula ausente (ponteiro nulo); parâmetro
// presente com valor vazio vira conjunto vazio, que não seleciona nada.
func parseFilter(query url.Values) (*domain.Filter, error) {
	filter := &domain.Filter{}

	if values, ok := stringSetParam(query, "countries"); ok {
		filter.Countries = &values
	}
	if values, ok := stringSetParam(query, "products"); ok {
		filter.Products = &values
	}
	if values, ok := stringSetParam(query, "sales_persons"); ok {
		filter.SalesPersons = &values
	}

	if values, ok := stringSetParam(query, "sale_types"); ok {
		saleTypes := make([]domain.SaleType, 0, len(values))
		for _, value := range values {
			saleType, err := domain.ParseSaleType(value)
			if err != nil {
				return nil, err
			}
			saleTypes = append(saleTypes, saleType)
		}
		filter.SaleTypes = &saleTypes
	}

	if raw := query.Get("date_from"); raw != "" {
		date, err := utils.ParseDate(raw)
		if err != nil {
			return nil, errors.Errorf("data inicial inválida %q", raw)
		}
		filter.DateFrom = &date
	}
	if raw := query.Get("date_to"); raw != "" {
		date, err := utils.ParseDate(raw)
		if err != nil {
			return nil, errors.Errorf("data final inválida %q", raw)
		}
		filter.DateTo = &date
	}

	if raw := query.Get("amount_min"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Errorf("valor mínimo inválido %q", raw)
		}
		filter.AmountMin = &value
	}
	if raw := query.Get("amount_max"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Errorf("valor máximo inválido %q", raw)
		}
		filter.AmountMax = &value
	}

	if raw := query.Get("boxes_min"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Errorf("mínimo de caixas inválido %q", raw)
		}
		filter.BoxesMin = &value
	}
	if raw := query.Get("boxes_max"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Errorf("máximo de caixas inválido %q", raw)
		}
		filter.BoxesMax = &value
	}

	return filter, nil
}

// stringSetParam lê um parâmetro de lista separado por vírgulas. O segundo
// retorno distingue parâmetro ausente de parâmetro presente e vazio.
func stringSetParam(query url.Values, name string) ([]string, bool) {
	if !query.Has(name) {
		return nil, false
	}

	raw := query.Get(name)
	if raw == "" {
		return []string{}, true
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values, true
}

// parseSort lê a chave e a direção de ordenação. Sem sort_by, o conjunto
// fica na ordem original de inserção.
func parseSort(query url.Values) (domain.SortKey, domain.SortOrder, error) {
	raw := query.Get("sort_by")
	if raw == "" {
		return "", domain.SortAscending, nil
	}

	sortKey, err := domain.ParseSortKey(raw)
	if err != nil {
		return "", "", err
	}

	order := domain.SortAscending
	if query.Get("order") == string(domain.SortDescending) {
		order = domain.SortDescending
	}

	return sortKey, order, nil
}

// parseMetric lê a métrica da query string, com amount como padrão
func parseMetric(query url.Values) (domain.Metric, error) {
	raw := query.Get("metric")
	if raw == "" {
		return domain.MetricAmount, nil
	}
	return domain.ParseMetric(raw)
}

// handleAnalysisError mapeia os erros do motor analítico para as respostas da API
func handleAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analyzing.ErrNotAllowed):
		apiErrors.WriteError(w, apiErrors.ErrInsufficientPrivilege, "Operação não permitida para o papel da sessão", nil)

	case errors.Is(err, repository.ErrSaleNotFound):
		apiErrors.WriteError(w, apiErrors.ErrSaleNotFound, "Venda não encontrada", nil)

	case errors.Is(err, ingesting.ErrMalformedInput):
		apiErrors.WriteError(w, apiErrors.ErrMalformedInput, err.Error(), nil)

	case errors.Is(err, forecasting.ErrInsufficientData):
		apiErrors.WriteError(w, apiErrors.ErrInsufficientData, "Dados insuficientes para projeção: são necessários ao menos dois meses observados", nil)

	default:
		logrus.Error(err)
		apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro interno ao processar a análise", nil)
	}
}
