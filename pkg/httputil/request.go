package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes an error response on failure
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// ParsePathID extracts a non-empty string path parameter
func ParsePathID(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	id := vars[key]
	if id == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return id, nil
}

// ParsePathIDOrError extracts a string path parameter and writes an error
// response on failure
func ParsePathIDOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	id, err := ParsePathID(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return id, true
}

// ParseQueryInt parses an integer query parameter with a default
func ParseQueryInt(r *http.Request, key string, def int) int {
	str := r.URL.Query().Get(key)
	if str == "" {
		return def
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return def
	}
	return val
}
