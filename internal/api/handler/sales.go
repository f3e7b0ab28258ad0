package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/internal/session"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/analyzing"
	"github.com/rmonteiro89/sales-analytics-api/pkg/apiErrors"
	"github.com/rmonteiro89/sales-analytics-api/pkg/utils"
)

type CreateSaleRequest struct {
	SalesPerson  string  `json:"sales_person"`
	Country      string  `json:"country"`
	Product      string  `json:"product"`
	Date         string  `json:"date"`
	Amount       float64 `json:"amount"`
	BoxesShipped int     `json:"boxes_shipped"`
	SaleType     string  `json:"sale_type"` // vazio aplica a regra padrão de classificação
}

// ListSales retorna o conjunto escopado, filtrado e ordenado
func ListSales(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(sessions, w, r)
		if sess == nil {
			return
		}

		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		sortKey, order, err := parseSort(r.URL.Query())
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		records, err := service.Query(r.Context(), sess, filter, sortKey, order)
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"total": len(records),
			"sales": records,
		})
	}
}

// CreateSale insere uma venda individual. Sem sale_type no corpo, a regra
// padrão classifica na entrada.
func CreateSale(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(sessions, w, r)
		if sess == nil {
			return
		}

		var req CreateSaleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		if req.SalesPerson == "" || req.Country == "" || req.Product == "" || req.Date == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Vendedor, país, produto e data são obrigatórios", nil)
			return
		}

		date, err := utils.ParseDate(req.Date)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Data inválida", nil)
			return
		}

		sale := &domain.SaleRecord{
			SalesPerson:  req.SalesPerson,
			Country:      req.Country,
			Product:      req.Product,
			Date:         date,
			Amount:       req.Amount,
			BoxesShipped: req.BoxesShipped,
			SaleType:     domain.SaleType(req.SaleType),
		}

		id, err := service.CreateSale(r.Context(), sess, sale)
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]int64{"id": id})
	}
}

// UpdateSale aplica uma atualização parcial sobre uma venda existente
func UpdateSale(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(sessions, w, r)
		if sess == nil {
			return
		}

		id, ok := saleIDFromRequest(w, r)
		if !ok {
			return
		}

		var req domain.UpdateSaleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		if err := service.UpdateSale(r.Context(), sess, id, &req); err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteSale remove uma venda pelo ID
func DeleteSale(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(sessions, w, r)
		if sess == nil {
			return
		}

		id, ok := saleIDFromRequest(w, r)
		if !ok {
			return
		}

		if err := service.DeleteSale(r.Context(), sess, id); err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ExportSales serializa o conjunto escopado, filtrado e ordenado em CSV
func ExportSales(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(sessions, w, r)
		if sess == nil {
			return
		}

		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		sortKey, order, err := parseSort(r.URL.Query())
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		data, err := service.ExportCSV(r.Context(), sess, filter, sortKey, order)
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="sales_export.csv"`)
		w.Write(data)
	}
}

// saleIDFromRequest lê e valida o ID numérico da venda na URL
func saleIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	rawID := httprouter.ParamsFromContext(r.Context()).ByName("id")
	if rawID == "" {
		apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "ID da venda não fornecido", nil)
		return 0, false
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "ID da venda inválido", nil)
		return 0, false
	}

	return id, true
}
