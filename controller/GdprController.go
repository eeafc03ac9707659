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

type GdprController interface {
	CreateGdprRequest(w http.ResponseWriter, r *http.Request)
	ListGdprRequests(w http.ResponseWriter, r *http.Request)
	GetGdprRequest(w http.ResponseWriter, r *http.Request)
	ProcessGdprRequest(w http.ResponseWriter, r *http.Request)
	GetGdprExportFile(w http.ResponseWriter, r *http.Request)
}

func NewGdprController(gdprService service.GdprService) GdprController {
	return &gdprControllerImpl{gdprService: gdprService}
}

type gdprControllerImpl struct {
	gdprService service.GdprService
}

func (g gdprControllerImpl) CreateGdprRequest(w http.ResponseWriter, r *http.Request) {
	var req view.CreateGdprRequestReq
	if !readRequest(w, r, &req) {
		return
	}
	result, err := g.gdprService.CreateRequest(r.Context(), secctx.Create(r), req)
	if err != nil {
		utils.RespondWithError(w, "Failed to create GDPR request", err)
		return
	}
	utils.RespondWithJson(w, http.StatusCreated, result)
}

func (g gdprControllerImpl) ListGdprRequests(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := getPaging(w, r)
	if !ok {
		return
	}
	filter := view.GdprRequestsFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}
	result, err := g.gdprService.ListRequests(r.Context(), secctx.Create(r), filter)
	if err != nil {
		utils.RespondWithError(w, "Failed to list GDPR requests", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, result)
}

func (g gdprControllerImpl) GetGdprRequest(w http.ResponseWriter, r *http.Request) {
	result, err := g.gdprService.GetRequest(r.Context(), secctx.Create(r), getStringParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, "Failed to get GDPR request", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, result)
}

func (g gdprControllerImpl) ProcessGdprRequest(w http.ResponseWriter, r *http.Request) {
	var req view.ProcessGdprRequestReq
	if !readRequest(w, r, &req) {
		return
	}
	result, err := g.gdprService.ProcessRequest(r.Context(), secctx.Create(r), getStringParam(r, "id"), req)
	if err != nil {
		utils.RespondWithError(w, "Failed to process GDPR request", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, result)
}

func (g gdprControllerImpl) GetGdprExportFile(w http.ResponseWriter, r *http.Request) {
	fileName, data, err := g.gdprService.GetExportFile(r.Context(), secctx.Create(r), getStringParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, "Failed to get GDPR export", err)
		return
	}
	cacheControlNoStore(w)
	utils.RespondWithFile(w, fileName, "application/zip", data)
}
