package controller

import (
	"net/http"

	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
)

type DashboardController interface {
	GetDashboardStats(w http.ResponseWriter, r *http.Request)
}

func NewDashboardController(dashboardService service.DashboardService) DashboardController {
	return &dashboardControllerImpl{dashboardService: dashboardService}
}

type dashboardControllerImpl struct {
	dashboardService service.DashboardService
}

func (d dashboardControllerImpl) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := d.dashboardService.GetDashboardStats(r.Context(), secctx.Create(r))
	if err != nil {
		utils.RespondWithError(w, "Failed to get dashboard stats", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, stats)
}
