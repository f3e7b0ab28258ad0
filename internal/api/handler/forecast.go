package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rmonteiro89/sales-analytics-api/internal/config"
	"github.com/rmonteiro89/sales-analytics-api/internal/session"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/analyzing"
	"github.com/rmonteiro89/sales-analytics-api/pkg/apiErrors"
)

// Forecast projeta a métrica escolhida por `periods` meses além do último
// mês observado no conjunto escopado e filtrado
func Forecast(service analyzing.Analyzer, sessions *session.Manager, cfg *config.Config) http.HandlerFunc {
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

		metric, err := parseMetric(query)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		periods := cfg.Forecast.DefaultPeriods
		if raw := query.Get("periods"); raw != "" {
			periods, err = strconv.Atoi(raw)
			if err != nil || periods < 1 || periods > cfg.Forecast.MaxPeriods {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Número de períodos inválido", nil)
				return
			}
		}

		result, err := service.Forecast(r.Context(), sess, filter, metric, periods)
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
