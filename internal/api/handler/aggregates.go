package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/internal/session"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/analyzing"
	"github.com/rmonteiro89/sales-analytics-api/pkg/apiErrors"
)

// TopGroups retorna os n grupos com as maiores somas da métrica
func TopGroups(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(sessions, w, r)
		if sess == nil {
			return
		}

		query := r.URL.Query()

		filter, err := parseFilter(query)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		groupKey, err := domain.ParseGroupKey(query.Get("group_by"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		metric, err := parseMetric(query)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		n := 10
		if raw := query.Get("n"); raw != "" {
			n, err = strconv.Atoi(raw)
			if err != nil || n < 0 {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Tamanho de ranking inválido", nil)
				return
			}
		}

		totals, err := service.TopN(r.Context(), sess, filter, groupKey, metric, n)
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"group_by": groupKey,
			"metric":   metric,
			"totals":   totals,
		})
	}
}

// GroupSums retorna a soma da métrica para todos os grupos
func GroupSums(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(sessions, w, r)
		if sess == nil {
			return
		}

		query := r.URL.Query()

		filter, err := parseFilter(query)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		groupKey, err := domain.ParseGroupKey(query.Get("group_by"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		metric, err := parseMetric(query)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		totals, err := service.GroupSum(r.Context(), sess, filter, groupKey, metric)
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"group_by": groupKey,
			"metric":   metric,
			"totals":   totals,
		})
	}
}

// ValueCounts conta os registros por valor distinto de um campo
func ValueCounts(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(sessions, w, r)
		if sess == nil {
			return
		}

		query := r.URL.Query()

		filter, err := parseFilter(query)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		field := query.Get("field")
		if field == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Campo de contagem não fornecido", nil)
			return
		}

		counts, err := service.ValueCounts(r.Context(), sess, filter, field)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"field":  field,
			"counts": counts,
		})
	}
}

// SeasonalAverages retorna a média da métrica por mês do calendário para um produto
func SeasonalAverages(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromRequest(sessions, w, r)
		if sess == nil {
			return
		}

		query := r.URL.Query()

		filter, err := parseFilter(query)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		product := query.Get("product")
		if product == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Produto não fornecido", nil)
			return
		}

		metric, err := parseMetric(query)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		points, err := service.SeasonalAverage(r.Context(), sess, filter, product, metric)
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"product": product,
			"metric":  metric,
			"points":  points,
		})
	}
}
