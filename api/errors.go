// Copyright 2025 Poiesic Systems
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

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/poiesic/chunkd/core"
)

// httpStatus maps domain errors to stable HTTP status codes. Unknown
// errors map to 500 so internals never leak a misleading code.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrIndexNotFound),
		errors.Is(err, core.ErrChunkNotFound),
		errors.Is(err, core.ErrEdgeNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrPartialFailure):
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps err to a status and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	writeJSONError(w, httpStatus(err), err.Error())
}
