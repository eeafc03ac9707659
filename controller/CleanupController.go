package controller

import (
	"net/http"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service/cleanup"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
)

type CleanupController interface {
	GetLastRun(w http.ResponseWriter, r *http.Request)
}

func NewCleanupController(cleanupService cleanup.CleanupService) CleanupController {
	return &cleanupControllerImpl{cleanupService: cleanupService}
}

type cleanupControllerImpl struct {
	cleanupService cleanup.CleanupService
}

func (c cleanupControllerImpl) GetLastRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.cleanupService.GetLastRun(r.Context(), getStringParam(r, "jobType"))
	if err != nil {
		utils.RespondWithError(w, "Failed to get last cleanup run", err)
		return
	}
	if run == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, run)
}
