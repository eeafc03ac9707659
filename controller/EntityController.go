package controller

import (
	"net/http"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

type EntityController interface {
	GetImportableEntities(w http.ResponseWriter, r *http.Request)
	GetExportableEntities(w http.ResponseWriter, r *http.Request)
}

func NewEntityController(registry service.EntitySchemaRegistry) EntityController {
	return &entityControllerImpl{registry: registry}
}

type entityControllerImpl struct {
	registry service.EntitySchemaRegistry
}

func (e entityControllerImpl) GetImportableEntities(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJson(w, http.StatusOK, view.EntityTypes{Entities: e.registry.ListImportable()})
}

func (e entityControllerImpl) GetExportableEntities(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJson(w, http.StatusOK, view.EntityTypes{Entities: e.registry.ListExportable()})
}
