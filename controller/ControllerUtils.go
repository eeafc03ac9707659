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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/exception"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	"github.com/gorilla/mux"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

func getStringParam(r *http.Request, p string) string {
	params := mux.Vars(r)
	return params[p]
}

// readRequest decodes a JSON body into req and validates it. On failure the response is already written.
func readRequest(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithBadBody(w, err)
		return false
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err = json.Unmarshal(body, req); err != nil {
		respondWithBadBody(w, err)
		return false
	}
	if validationErr := utils.ValidateObject(req); validationErr != nil {
		var customError *exception.CustomError
		if errors.As(validationErr, &customError) {
			utils.RespondWithCustomError(w, customError)
			return false
		}
		respondWithBadBody(w, validationErr)
		return false
	}
	return true
}

func respondWithBadBody(w http.ResponseWriter, err error) {
	utils.RespondWithCustomError(w, &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.BadRequestBody,
		Message: exception.BadRequestBodyMsg,
		Debug:   err.Error(),
	})
}

func getLimitQueryParam(r *http.Request) (int, *exception.CustomError) {
	if r.URL.Query().Get("limit") == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0, incorrectParamType("limit", "int", err)
	}
	if limit < 1 || limit > maxLimit {
		return 0, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidParameterValue,
			Message: exception.InvalidLimitMsg,
			Params:  map[string]interface{}{"value": limit, "maxLimit": maxLimit},
		}
	}
	return utils.NormalizeLimit(limit, defaultLimit, maxLimit), nil
}

func getOffsetQueryParam(r *http.Request) (int, *exception.CustomError) {
	if r.URL.Query().Get("offset") == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		return 0, incorrectParamType("offset", "int", err)
	}
	if offset < 0 {
		return 0, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidParameterValue,
			Message: exception.InvalidParameterValueMsg,
			Params:  map[string]interface{}{"param": "offset", "value": offset},
		}
	}
	return offset, nil
}

// getPaging reads limit and offset. On failure the response is already written.
func getPaging(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	limit, customErr := getLimitQueryParam(r)
	if customErr != nil {
		utils.RespondWithCustomError(w, customErr)
		return 0, 0, false
	}
	offset, customErr := getOffsetQueryParam(r)
	if customErr != nil {
		utils.RespondWithCustomError(w, customErr)
		return 0, 0, false
	}
	return limit, offset, true
}

func getFloatQueryParam(r *http.Request, p string) (float64, *exception.CustomError) {
	value := r.URL.Query().Get(p)
	if value == "" {
		return 0, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, incorrectParamType(p, "float", err)
	}
	return result, nil
}

func incorrectParamType(param string, paramType string, err error) *exception.CustomError {
	return &exception.CustomError{
		Status:  http.StatusBadRequest,
		Code:    exception.IncorrectParamType,
		Message: exception.IncorrectParamTypeMsg,
		Params:  map[string]interface{}{"param": param, "type": paramType},
		Debug:   err.Error(),
	}
}

func cacheControlNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Expires", time.Unix(0, 0).UTC().Format(http.TimeFormat))
}
