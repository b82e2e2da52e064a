// This file implements utilities for parsing and validating HTTP request data.
// It keeps body decoding, path parameters and month names consistent across
// every handler.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"rumclub/internal/core"
	"rumclub/internal/export"
)

// maxBodyBytes bounds JSON bodies and roster uploads.
const maxBodyBytes = 1 << 20

// errBadRequest marks malformed requests: bad JSON, unknown fields, bad
// path parameters.
var errBadRequest = errors.New("bad request")

// decodeJSON reads a single JSON object into dst. Unknown fields are
// rejected so typos do not silently become no-ops.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// readBody reads a raw body such as a roster file.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return data, nil
}

// canonicalMonth maps a month as typed in a URL ("fevrier", "FÉVRIER") to
// its stored spelling. Unknown names are returned unchanged so the ledger
// reports them.
func canonicalMonth(raw string, months []string) string {
	key := monthKey(raw)
	for _, m := range months {
		if monthKey(m) == key {
			return m
		}
	}
	return raw
}

func monthKey(s string) string {
	return strings.ToLower(export.Transliterate(strings.TrimSpace(s)))
}

// sampleMonth reads the {month} path value for sample routes.
func sampleMonth(r *http.Request) string {
	return canonicalMonth(r.PathValue("month"), core.SampleMonths)
}

// tastingMonth reads the {month} path value for tasting routes.
func tastingMonth(r *http.Request) string {
	return canonicalMonth(r.PathValue("month"), core.TastingMonths)
}

// memberParam reads a member name from the path. Names are stored in their
// formatted form, so only surrounding blanks are dropped.
func memberParam(r *http.Request) string {
	return strings.TrimSpace(sanitizeInput(r.PathValue("member")))
}

// guestIndex reads the {index} path value.
func guestIndex(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("index"))
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: guest index %q is not a number", errBadRequest, raw)
	}
	if i < 0 {
		return 0, fmt.Errorf("%q: %w", raw, core.ErrGuestIndex)
	}
	return i, nil
}
