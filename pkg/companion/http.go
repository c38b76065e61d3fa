package companion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/itohio/govfd/pkg/activation"
	"github.com/itohio/govfd/pkg/adcmode"
	"github.com/itohio/govfd/pkg/params"
)

type paramJSON struct {
	ID    string  `json:"id"`
	Owner string  `json:"owner"`
	Kind  string  `json:"kind"`
	Value float32 `json:"value"`
}

type requestJSON struct {
	Bank    int    `json:"bank"`
	Pending bool   `json:"pending"`
	Result  string `json:"result"`
}

type enableJSON struct {
	On bool `json:"on"`
}

type valueJSON struct {
	Value json.RawMessage `json:"value"`
}

type modeJSON struct {
	Mode string `json:"mode"`
}

// NewRouter returns the HTTP API of c. Banks in paths are numbered from one.
//
//	GET  /api/params
//	GET  /api/params/{id}
//	PUT  /api/params/{id}             {"value": 12.5}
//	POST /api/channels/{bank}/enable  {"on": true}
//	GET  /api/channels/{bank}/request
//	GET  /api/mode
func NewRouter(c *Companion) *mux.Router {
	h := &handler{c: c}

	r := mux.NewRouter()
	r.HandleFunc("/api/params", h.listParams).Methods(http.MethodGet)
	r.HandleFunc("/api/params/{id}", h.getParam).Methods(http.MethodGet)
	r.HandleFunc("/api/params/{id}", h.putParam).Methods(http.MethodPut)
	r.HandleFunc("/api/channels/{bank}/enable", h.enable).Methods(http.MethodPost)
	r.HandleFunc("/api/channels/{bank}/request", h.request).Methods(http.MethodGet)
	r.HandleFunc("/api/mode", h.mode).Methods(http.MethodGet)
	return r
}

type handler struct {
	c *Companion
}

func (h *handler) listParams(w http.ResponseWriter, _ *http.Request) {
	entries := h.c.Snapshot()
	out := make([]paramJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getParam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}
	v, err := h.c.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJSON(params.Entry{ID: id, Value: v}))
}

func (h *handler) putParam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paramID(w, r)
	if !ok {
		return
	}

	var body valueJSON
	if err := decode(r.Body, &body); err != nil {
		writeError(w, err)
		return
	}

	// Booleans are accepted as JSON booleans, numbers or strings.
	text := strings.Trim(string(body.Value), `"`)
	if err := h.c.SetText(id, text); err != nil {
		writeError(w, err)
		return
	}

	v, err := h.c.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJSON(params.Entry{ID: id, Value: v}))
}

func (h *handler) enable(w http.ResponseWriter, r *http.Request) {
	bank, ok := bankVar(w, r)
	if !ok {
		return
	}

	var body enableJSON
	if err := decode(r.Body, &body); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.c.Enable(r.Context(), bank, body.On)
	if err != nil && !errors.Is(err, ErrRejected) {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if res != activation.Ok {
		status = http.StatusConflict
	}
	writeJSON(w, status, requestJSON{Bank: bank + 1, Result: res.String()})
}

func (h *handler) request(w http.ResponseWriter, r *http.Request) {
	bank, ok := bankVar(w, r)
	if !ok {
		return
	}

	pending, res, err := h.c.Status(bank)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requestJSON{Bank: bank + 1, Pending: pending, Result: res.String()})
}

func (h *handler) mode(w http.ResponseWriter, _ *http.Request) {
	mode := adcmode.Monitoring
	if h.c.Store().Read(params.BoardID(params.SamplingControl)).Bool() {
		mode = adcmode.Control
	}
	writeJSON(w, http.StatusOK, modeJSON{Mode: mode.String()})
}

func (h *handler) paramID(w http.ResponseWriter, r *http.Request) (params.ID, bool) {
	id, err := params.ParseID(mux.Vars(r)["id"])
	if err == nil && !h.c.Store().Valid(id) {
		err = fmt.Errorf("%w: %s", params.ErrUnknownID, id)
	}
	if err != nil {
		writeError(w, err)
		return 0, false
	}
	return id, true
}

func bankVar(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)["bank"])
	if err != nil || n < 1 {
		writeError(w, fmt.Errorf("%w: %q", ErrUnknownBank, mux.Vars(r)["bank"]))
		return 0, false
	}
	return n - 1, true
}

func toJSON(e params.Entry) paramJSON {
	f := e.ID.Field()
	kind := "float"
	if f.Kind() == params.KindBool {
		kind = "bool"
	}
	return paramJSON{
		ID:    e.ID.String(),
		Owner: f.Owner().String(),
		Kind:  kind,
		Value: e.Value.Float(),
	}
}

func decode(body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

var errBadRequest = errors.New("bad request")

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, params.ErrUnknownID), errors.Is(err, ErrUnknownBank):
		status = http.StatusNotFound
	case errors.Is(err, params.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, errBadRequest), errors.Is(err, params.ErrKind), errors.Is(err, params.ErrRange):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logf("write response: %v", err)
	}
}
