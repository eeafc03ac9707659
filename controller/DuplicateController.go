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

type DuplicateController interface {
	DetectDuplicates(w http.ResponseWriter, r *http.Request)
	ListDuplicates(w http.ResponseWriter, r *http.Request)
	GetDuplicateRecords(w http.ResponseWriter, r *http.Request)
	MergeDuplicates(w http.ResponseWriter, r *http.Request)
	DismissDuplicate(w http.ResponseWriter, r *http.Request)
}

func NewDuplicateController(duplicateService service.DuplicateService, mergeService service.MergeService) DuplicateController {
	return &duplicateControllerImpl{duplicateService: duplicateService, mergeService: mergeService}
}

type duplicateControllerImpl struct {
	duplicateService service.DuplicateService
	mergeService     service.MergeService
}

func (d duplicateControllerImpl) DetectDuplicates(w http.ResponseWriter, r *http.Request) {
	var req view.DetectDuplicatesReq
	if !readRequest(w, r, &req) {
		return
	}
	if err := d.duplicateService.DetectDuplicates(r.Context(), secctx.Create(r), req.EntityType); err != nil {
		utils.RespondWithError(w, "Failed to start duplicate detection", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (d duplicateControllerImpl) ListDuplicates(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := getPaging(w, r)
	if !ok {
		return
	}
	var minConfidence *float64
	if r.URL.Query().Get("minConfidence") != "" {
		value, customErr := getFloatQueryParam(r, "minConfidence")
		if customErr != nil {
			utils.RespondWithCustomError(w, customErr)
			return
		}
		minConfidence = &value
	}
	filter := view.DuplicatesFilter{
		EntityType:    r.URL.Query().Get("entityType"),
		Status:        view.DuplicateStatus(r.URL.Query().Get("status")),
		MinConfidence: minConfidence,
		Limit:         limit,
		Offset:        offset,
	}
	result, err := d.duplicateService.ListDuplicates(r.Context(), secctx.Create(r), filter)
	if err != nil {
		utils.RespondWithError(w, "Failed to list duplicates", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, result)
}

func (d duplicateControllerImpl) GetDuplicateRecords(w http.ResponseWriter, r *http.Request) {
	result, err := d.duplicateService.GetDuplicateRecords(r.Context(), secctx.Create(r), getStringParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, "Failed to get duplicate records", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, result)
}

func (d duplicateControllerImpl) MergeDuplicates(w http.ResponseWriter, r *http.Request) {
	var req view.MergeDuplicatesReq
	if !readRequest(w, r, &req) {
		return
	}
	if err := d.mergeService.Merge(r.Context(), secctx.Create(r), getStringParam(r, "id"), req); err != nil {
		utils.RespondWithError(w, "Failed to merge duplicates", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d duplicateControllerImpl) DismissDuplicate(w http.ResponseWriter, r *http.Request) {
	var req view.DismissDuplicateReq
	if !readRequest(w, r, &req) {
		return
	}
	if err := d.duplicateService.DismissDuplicate(r.Context(), secctx.Create(r), getStringParam(r, "id"), req.Reason); err != nil {
		utils.RespondWithError(w, "Failed to dismiss duplicate", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
