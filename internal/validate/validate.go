package validate

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/qri-io/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names, keyed by embedded filename without extension.
const (
	WashRequest   = "wash_request"
	UploadRequest = "upload_request"
)

// Validator holds the compiled request-body schemas. Handlers run incoming
// JSON through it before decoding into typed requests, so malformed shapes
// get a uniform 400.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas dir: %w", err)
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(entries))}
	for _, e := range entries {
		b, err := fs.ReadFile(schemaFS, path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}

		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}

		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		v.schemas[name] = rs
	}

	return v, nil
}

// Check validates body against the named schema. A schema violation comes
// back as a plain error naming the first offending key.
func (v *Validator) Check(ctx context.Context, name string, body []byte) error {
	rs, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	keyErrs, err := rs.ValidateBytes(ctx, body)
	if err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if len(keyErrs) > 0 {
		return fmt.Errorf("%s: %s", keyErrs[0].PropertyPath, keyErrs[0].Message)
	}

	return nil
}
