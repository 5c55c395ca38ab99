package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/pkg/metrics"
)

//go:embed schema/snapshot.schema.json
var snapshotSchema []byte

const snapshotSchemaURL = "snapshot.schema.json"

// SnapshotHandler accepts snapshots for asynchronous ingestion.
type SnapshotHandler struct {
	deps   SnapshotDependencies
	schema *jsonschema.Schema
}

// NewSnapshotHandler compiles the snapshot schema.
func NewSnapshotHandler(deps SnapshotDependencies) (*SnapshotHandler, error) {
	sch, err := compileSnapshotSchema()
	if err != nil {
		return nil, err
	}
	return &SnapshotHandler{deps: deps, schema: sch}, nil
}

func compileSnapshotSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(snapshotSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(snapshotSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add snapshot schema: %w", err)
	}
	sch, err := c.Compile(snapshotSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile snapshot schema: %w", err)
	}
	return sch, nil
}

// HandlePostSnapshot handles POST /api/v1/snapshots. Accepted snapshots
// answer 202, repeated ids 200 with duplicate set, and a full queue 429.
func (h *SnapshotHandler) HandlePostSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_snapshot"
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := h.parse(body)
	if err != nil {
		metrics.RecordSnapshotRejected("schema")
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Submit(r.Context(), snap)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	status := http.StatusAccepted
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *SnapshotHandler) parse(body []byte) (model.Snapshot, error) {
	var snap model.Snapshot
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return snap, fmt.Errorf("invalid json: %w", err)
	}
	if err := h.schema.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return snap, fmt.Errorf("snapshot does not match schema: %s", ve.Error())
		}
		return snap, err
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		return snap, fmt.Errorf("invalid snapshot: %w", err)
	}
	return snap, nil
}
