package api

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/qri-io/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// compiled request schemas, keyed by file name without extension
var requestSchemas = mustLoadSchemas()

func mustLoadSchemas() map[string]*jsonschema.Schema {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		panic(fmt.Errorf("read embedded schemas: %w", err))
	}

	out := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".json")
		body, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			panic(fmt.Errorf("read schema %s: %w", name, err))
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(body, rs); err != nil {
			panic(fmt.Errorf("compile schema %s: %w", name, err))
		}
		out[name] = rs
	}
	return out
}

// decodeValidated reads the request body, validates it against the named
// embedded schema, and decodes it into v. A validation failure is reported
// to the client with the first offending detail.
func decodeValidated(w http.ResponseWriter, r *http.Request, name string, v any) bool {
	schema, ok := requestSchemas[name]
	if !ok {
		logger.Error("unknown request schema", "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	verrs, err := schema.ValidateBytes(context.Background(), body)
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	if len(verrs) > 0 {
		writeJSON(w, errorResponse{Error: verrs[0].Error(), Kind: "validation"}, http.StatusBadRequest)
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}
