package calendarsync

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xdoubleu/essentia/v2/pkg/communication/httptools"
	"schedulesync.xdoubleu.com/apps/calendarsync/internal/models"
)

type statusResponse struct {
	LastPass *models.PassReport `json:"lastPass"`
	Synced   int                `json:"synced"`
	Skipped  int                `json:"skipped"`
	Failed   int                `json:"failed"`
}

func (app *CalendarSync) Routes(prefix string, mux *http.ServeMux) {
	apiPrefix := fmt.Sprintf("/%s/api", prefix)

	mux.HandleFunc(fmt.Sprintf("GET %s/status", apiPrefix), app.statusHandler)
}

func (app *CalendarSync) statusHandler(w http.ResponseWriter, r *http.Request) {
	//nolint:exhaustruct //counts stay zero before the first pass
	response := statusResponse{}

	if report := app.Services.Subjects.LastReport(); report != nil {
		response.LastPass = report
		response.Synced = report.Count(models.OutcomeSynced)
		response.Skipped = report.Count(models.OutcomeSkipped)
		response.Failed = report.Count(models.OutcomeFailed)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		httptools.HandleError(w, r, err)
	}
}
