package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/qmap/pkg/buildinfo"
	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/device"
	errs "github.com/matzehuels/qmap/pkg/errors"
	"github.com/matzehuels/qmap/pkg/pipeline"
)

// =============================================================================
// Wire types
// =============================================================================

// LayoutsRequest is the body of POST /v1/layouts.
type LayoutsRequest struct {
	Circuit *circuit.Circuit `json:"circuit"`
	Options pipeline.Options `json:"options"`
}

// DeflateResponse is the body returned by POST /v1/deflate.
type DeflateResponse struct {
	Circuit *circuit.Circuit  `json:"circuit"`
	Map     *circuit.IndexMap `json:"map"`
}

// RenderRequest is the body of POST /v1/render.
type RenderRequest struct {
	Circuit   *circuit.Circuit   `json:"circuit"`
	Candidate pipeline.Candidate `json:"candidate"`
	Format    string             `json:"format,omitempty"`
	Errors    bool               `json:"errors,omitempty"`
}

// DeviceSummary is one entry of GET /v1/devices.
type DeviceSummary struct {
	Name        string `json:"name"`
	Qubits      int    `json:"qubits"`
	Couplings   int    `json:"couplings"`
	Fingerprint string `json:"fingerprint"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.runner.Catalog.All()
	out := make([]DeviceSummary, len(devices))
	for i, d := range devices {
		g := d.ConnectivityGraph()
		out[i] = DeviceSummary{
			Name:        d.Name(),
			Qubits:      g.NodeCount(),
			Couplings:   g.EdgeCount(),
			Fingerprint: device.Fingerprint(d),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.runner.Catalog.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, device.SpecOf(d))
}

func (s *Server) handleLayouts(w http.ResponseWriter, r *http.Request) {
	var req LayoutsRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Circuit == nil {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "circuit is required"))
		return
	}
	req.Options.Logger = s.logger.With("request", RequestID(r.Context()))

	res, err := s.runner.Run(r.Context(), req.Circuit, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeflate(w http.ResponseWriter, r *http.Request) {
	var c circuit.Circuit
	if err := s.decode(w, r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, idx, err := s.runner.Deflate(r.Context(), &c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeflateResponse{Circuit: out, Map: idx})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Circuit == nil || req.Candidate.Device == "" {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "circuit and candidate are required"))
		return
	}
	if err := req.Circuit.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.RenderOptions{Format: req.Format, Errors: req.Errors}
	data, err := s.runner.Render(r.Context(), req.Circuit, req.Candidate, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctype := "image/svg+xml"
	if req.Format == pipeline.FormatDOT {
		ctype = "text/vnd.graphviz; charset=utf-8"
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Helpers
// =============================================================================

// decode reads a size-limited JSON body into v, rejecting unknown fields
// and trailing data.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return errs.New(errs.ErrCodeInvalidInput, "request body exceeds %d bytes", tooBig.Limit)
		}
		return errs.New(errs.ErrCodeInvalidInput, "decode request body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errs.New(errs.ErrCodeInvalidInput, "request body must hold a single JSON value")
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		err = errs.New(errs.ErrCodeTimeout, "request exceeded its time budget")
	}
	status := errs.HTTPStatus(err)
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	msg := errs.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
