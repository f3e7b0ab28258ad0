package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rmonteiro89/sales-analytics-api/internal/scheduler"
	"github.com/rmonteiro89/sales-analytics-api/pkg/apiErrors"
	"github.com/sirupsen/logrus"
)

// CronJobType define o tipo de cron job que será executada
const (
	CronJobTypeIngestion = "ingestion"
	CronJobTypeAll       = "all"
)

// CronJobServices contém os serviços de cron necessários para executar manualmente
type CronJobServices struct {
	IngestionSyncService *scheduler.IngestionSyncService
}

// RunCronJob executa manualmente uma cron job específica
func RunCronJob(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - RunCronJob")

		cronType := httprouter.ParamsFromContext(r.Context()).ByName("type")
		if cronType == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Tipo de cron job não especificado", nil)
			return
		}

		switch cronType {
		case CronJobTypeIngestion, CronJobTypeAll:
			if services.IngestionSyncService == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Serviço de re-ingestão não disponível", nil)
				return
			}
			if err := services.IngestionSyncService.RunNow(r.Context()); err != nil {
				logrus.WithError(err).Error("Erro na execução manual da re-ingestão")
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro na execução da re-ingestão", nil)
				return
			}

		default:
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Tipo de cron job inválido. Valores aceitos: ingestion, all", nil)
			return
		}

		response := map[string]any{
			"message": "Cron job executada com sucesso",
			"type":    cronType,
		}
		json.NewEncoder(w).Encode(response)
	}
}

// GetCronStatus retorna o status das cron jobs
func GetCronStatus(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - GetCronStatus")

		status := map[string]any{
			"ingestion": services.IngestionSyncService.GetStatus(),
		}

		json.NewEncoder(w).Encode(status)
	}
}
