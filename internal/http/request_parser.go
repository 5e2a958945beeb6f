package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"finanzbuch/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks input that could not be read at all.
var errBadRequest = errors.New("bad request")

// decodeJSON reads a single JSON object into dst and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		// domain types validate while unmarshalling; keep their sentinels
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return fmt.Errorf("%w: %v", errBadRequest, err)
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// pathKey parses the {key} route variable. Keys are decimal uint64.
func pathKey(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["key"]
	key, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: entry key %q", errBadRequest, raw)
	}
	return key, nil
}

func pathYearMonth(r *http.Request) (uint16, uint8, error) {
	vars := mux.Vars(r)
	year, err := strconv.ParseUint(vars["year"], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: year %q", errBadRequest, vars["year"])
	}
	month, err := strconv.ParseUint(vars["month"], 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", core.ErrInvalidMonth, vars["month"])
	}
	return uint16(year), uint8(month), nil
}

func pathDate(r *http.Request, name string) (core.Date, error) {
	return core.ParseDate(mux.Vars(r)[name])
}

// looseValue accepts a JSON string or number and returns its text for the
// monetary parser.
func looseValue(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", fmt.Errorf("%w: value is required", core.ErrInvalidAmount)
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return s, nil
	}
	return trimmed, nil
}
