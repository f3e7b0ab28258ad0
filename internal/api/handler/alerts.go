package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rmonteiro89/sales-analytics-api/internal/session"
	"github.com/rmonteiro89/sales-analytics-api/internal/usecases/analyzing"
	"github.com/rmonteiro89/sales-analytics-api/pkg/apiErrors"
	"github.com/sirupsen/logrus"
)

// AnomalyAlerts retorna as vendas acima do limiar de valor no conjunto
// escopado e filtrado. Conjunto vazio de anomalias é uma resposta normal.
func AnomalyAlerts(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
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

		alert, err := service.Anomalies(r.Context(), sess, filter)
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(alert)
	}
}

// TrendDropAlerts retorna os meses com queda acentuada sobre o mês anterior
func TrendDropAlerts(service analyzing.Analyzer, sessions *session.Manager) http.HandlerFunc {
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

		alert, err := service.TrendDrops(r.Context(), sess, filter, metric)
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(alert)
	}
}

// DismissAlert confirma o descarte de um alerta. O descarte é uma ação
// transitória da camada de exibição: nada é persistido e o alerta volta a
// ser calculado na próxima consulta.
func DismissAlert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alertID := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if alertID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "ID do alerta não fornecido", nil)
			return
		}

		logrus.Debugf("Alerta %s descartado", alertID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"alert_id": alertID,
			"status":   "dismissed",
		})
	}
}
