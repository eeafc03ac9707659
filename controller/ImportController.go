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

type ImportController interface {
	ParseImportFile(w http.ResponseWriter, r *http.Request)
	ValidateImportData(w http.ResponseWriter, r *http.Request)
	CreateImportJob(w http.ResponseWriter, r *http.Request)
	ListImportJobs(w http.ResponseWriter, r *http.Request)
	GetImportJob(w http.ResponseWriter, r *http.Request)
}

func NewImportController(importService service.ImportService) ImportController {
	return &importControllerImpl{importService: importService}
}

type importControllerImpl struct {
	importService service.ImportService
}

func (i importControllerImpl) ParseImportFile(w http.ResponseWriter, r *http.Request) {
	var req view.ParseImportFileReq
	if !readRequest(w, r, &req) {
		return
	}
	result, err := i.importService.ParseImportFile(req)
	if err != nil {
		utils.RespondWithError(w, "Failed to parse import file", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, result)
}

func (i importControllerImpl) ValidateImportData(w http.ResponseWriter, r *http.Request) {
	var req view.ValidateImportDataReq
	if !readRequest(w, r, &req) {
		return
	}
	result, err := i.importService.ValidateImportData(req)
	if err != nil {
		utils.RespondWithError(w, "Failed to validate import data", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, result)
}

func (i importControllerImpl) CreateImportJob(w http.ResponseWriter, r *http.Request) {
	var req view.CreateImportJobReq
	if !readRequest(w, r, &req) {
		return
	}
	job, err := i.importService.CreateImportJob(r.Context(), secctx.Create(r), req)
	if err != nil {
		utils.RespondWithError(w, "Failed to create import job", err)
		return
	}
	utils.RespondWithJson(w, http.StatusAccepted, job)
}

func (i importControllerImpl) ListImportJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := getPaging(w, r)
	if !ok {
		return
	}
	filter := view.ImportJobsFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}
	jobs, err := i.importService.ListImportJobs(r.Context(), secctx.Create(r), filter)
	if err != nil {
		utils.RespondWithError(w, "Failed to list import jobs", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, jobs)
}

func (i importControllerImpl) GetImportJob(w http.ResponseWriter, r *http.Request) {
	job, err := i.importService.GetImportJob(r.Context(), secctx.Create(r), getStringParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, "Failed to get import job", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, job)
}
