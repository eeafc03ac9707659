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

type ArchiveController interface {
	ArchiveRecord(w http.ResponseWriter, r *http.Request)
	ListArchivedRecords(w http.ResponseWriter, r *http.Request)
	RestoreArchivedRecord(w http.ResponseWriter, r *http.Request)
	PermanentlyDelete(w http.ResponseWriter, r *http.Request)
	BulkUpdate(w http.ResponseWriter, r *http.Request)
	BulkDelete(w http.ResponseWriter, r *http.Request)
}

func NewArchiveController(archiveService service.ArchiveService) ArchiveController {
	return &archiveControllerImpl{archiveService: archiveService}
}

type archiveControllerImpl struct {
	archiveService service.ArchiveService
}

func (a archiveControllerImpl) ArchiveRecord(w http.ResponseWriter, r *http.Request) {
	var req view.ArchiveRecordReq
	if !readRequest(w, r, &req) {
		return
	}
	result, err := a.archiveService.Archive(r.Context(), secctx.Create(r), req)
	if err != nil {
		utils.RespondWithError(w, "Failed to archive record", err)
		return
	}
	utils.RespondWithJson(w, http.StatusCreated, result)
}

func (a archiveControllerImpl) ListArchivedRecords(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := getPaging(w, r)
	if !ok {
		return
	}
	filter := view.ArchivedRecordsFilter{
		EntityType: r.URL.Query().Get("entityType"),
		Limit:      limit,
		Offset:     offset,
	}
	result, err := a.archiveService.ListArchived(r.Context(), secctx.Create(r), filter)
	if err != nil {
		utils.RespondWithError(w, "Failed to list archived records", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, result)
}

func (a archiveControllerImpl) RestoreArchivedRecord(w http.ResponseWriter, r *http.Request) {
	if err := a.archiveService.Restore(r.Context(), secctx.Create(r), getStringParam(r, "id")); err != nil {
		utils.RespondWithError(w, "Failed to restore archived record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a archiveControllerImpl) PermanentlyDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.archiveService.PermanentlyDelete(r.Context(), secctx.Create(r), getStringParam(r, "id")); err != nil {
		utils.RespondWithError(w, "Failed to delete archived record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a archiveControllerImpl) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req view.BulkUpdateReq
	if !readRequest(w, r, &req) {
		return
	}
	result, err := a.archiveService.BulkUpdate(r.Context(), secctx.Create(r), req)
	if err != nil {
		utils.RespondWithError(w, "Failed to update records", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, result)
}

func (a archiveControllerImpl) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req view.BulkDeleteReq
	if !readRequest(w, r, &req) {
		return
	}
	result, err := a.archiveService.BulkDelete(r.Context(), secctx.Create(r), req)
	if err != nil {
		utils.RespondWithError(w, "Failed to delete records", err)
		return
	}
	utils.RespondWithJson(w, http.StatusOK, result)
}
