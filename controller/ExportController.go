// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controller

import (
	"net/http"

	secctx "github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/service"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

type ExportController interface {
	CreateExportJob(w http.ResponseWriter, r *http.Request)
	ListExportJobs(w http.ResponseWriter, r *http.Request)
	GetExportJob(w http.ResponseWriter, r *http.Request)
	GetExportDownloadUrl(w http.ResponseWriter, r *http.Request)
	GetExportFile(w http.ResponseWriter, r *http.Request)
}

func NewExportController(exportService service.ExportService) ExportController {
	return &exportControllerImpl{exportService: exportService}
}

type exportControllerImpl struct {
	exportService service.ExportService
}

func (e exportControllerImpl) CreateExportJob(w http.ResponseWriter, r *http.Request) {
	var req view.CreateExportJobReq
	if !readRequest(w, r, &req) {
		return
	}
	job, err := e.exportService.CreateExportJob(r.Context(), secctx.Create(r), req)
	if err != nil {
		utils.RespondWithError(w, "Failed to create export job", err)
		return
	}
	utils.RespondWithJson(w, http.StatusAccepted, job)
}

func (e exportControllerImpl) ListExportJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := getPaging(w, r)
	if !ok {
		return
	}
	filter := view.ExportJobsFilter{
		Status:     r.URL.Query().Get("status"),
		EntityType: r.URL.Query().Get("entityType"),
		Limit:      limit,
		Offset:     offset,
	}
	jobs, err := e.exportService.ListExportJobs(r.Context(), secctx.Create(r), filter)
	if err != nil {
		utils.RespondWithError(w, "Failed to list export jobs", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, jobs)
}

func (e exportControllerImpl) GetExportJob(w http.ResponseWriter, r *http.Request) {
	job, err := e.exportService.GetExportJob(r.Context(), secctx.Create(r), getStringParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, "Failed to get export job", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, job)
}

func (e exportControllerImpl) GetExportDownloadUrl(w http.ResponseWriter, r *http.Request) {
	download, err := e.exportService.GetExportDownloadUrl(r.Context(), secctx.Create(r), getStringParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, "Failed to get export download url", err)
		return
	}
	cacheControlNoStore(w)
	utils.RespondWithJson(w, http.StatusOK, download)
}

func (e exportControllerImpl) GetExportFile(w http.ResponseWriter, r *http.Request) {
	fileName, contentType, data, err := e.exportService.GetExportFile(r.Context(), secctx.Create(r), getStringParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, "Failed to get export file", err)
		return
	}
	cacheControlNoStore(w)
	utils.RespondWithFile(w, fileName, contentType, data)
}
