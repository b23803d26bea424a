package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gonkalabs/eraseme/internal/sanitize"
	"github.com/gonkalabs/eraseme/internal/selection"
)

// maxBodyBytes caps request bodies; clipboard text larger than this is not
// something the selection UI sends.
const maxBodyBytes = 4 << 20

// Handler implements the loopback control API used by the selection UI.
// It shares the watcher's Masker and Policy; both are safe for concurrent use.
type Handler struct {
	masker *sanitize.Masker
	policy *selection.Policy
}

// New creates a Handler.
func New(masker *sanitize.Masker, policy *selection.Policy) *Handler {
	return &Handler{masker: masker, policy: policy}
}

// Register mounts routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /v1/selection", h.getSelection)
	mux.HandleFunc("PUT /v1/selection", h.putSelection)
	mux.HandleFunc("DELETE /v1/selection", h.resetSelection)
	mux.HandleFunc("POST /v1/selection/reload", h.reloadSelection)
	mux.HandleFunc("POST /v1/mask", h.mask)
	mux.HandleFunc("POST /v1/unmask", h.unmask)
	mux.HandleFunc("POST /v1/render", h.render)
	mux.HandleFunc("GET /v1/cache", h.cacheStats)
}

// ---------- endpoints ----------

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type selectionBody struct {
	Labels []string `json:"labels"`
	Tags   []string `json:"tags,omitempty"`
}

func (h *Handler) writeSelection(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, selectionBody{
		Labels: h.policy.Selection(),
		Tags:   h.policy.Tags().Sorted(),
	})
}

func (h *Handler) getSelection(w http.ResponseWriter, _ *http.Request) {
	h.writeSelection(w)
}

func (h *Handler) putSelection(w http.ResponseWriter, r *http.Request) {
	var body selectionBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.policy.Save(body.Labels); err != nil {
		slog.Error("api: save selection", "err", err)
		writeErr(w, http.StatusInternalServerError, "save selection: "+err.Error())
		return
	}
	slog.Info("api: selection saved", "labels", len(body.Labels))
	h.writeSelection(w)
}

func (h *Handler) resetSelection(w http.ResponseWriter, _ *http.Request) {
	if err := h.policy.Reset(); err != nil {
		slog.Error("api: reset selection", "err", err)
		writeErr(w, http.StatusInternalServerError, "reset selection: "+err.Error())
		return
	}
	slog.Info("api: selection reset")
	h.writeSelection(w)
}

func (h *Handler) reloadSelection(w http.ResponseWriter, _ *http.Request) {
	if err := h.policy.Reload(); err != nil {
		slog.Error("api: reload selection", "err", err)
		writeErr(w, http.StatusUnprocessableEntity, "reload selection: "+err.Error())
		return
	}
	h.writeSelection(w)
}

type textRequest struct {
	Text string `json:"text"`
}

type maskResponse struct {
	Text     string `json:"text"`
	Masked   int    `json:"masked"`
	Degraded bool   `json:"degraded"`
}

func (h *Handler) mask(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := h.masker.MaskDetailed(r.Context(), req.Text, h.policy.Tags())
	writeJSON(w, http.StatusOK, maskResponse{Text: res.Text, Masked: res.Masked, Degraded: res.Degraded})
}

type unmaskResponse struct {
	Text       string `json:"text"`
	Restored   int    `json:"restored"`
	Unresolved int    `json:"unresolved"`
}

func (h *Handler) unmask(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := h.masker.UnmaskDetailed(req.Text)
	writeJSON(w, http.StatusOK, unmaskResponse{Text: res.Text, Restored: res.Restored, Unresolved: res.Unresolved})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.masker.Redact(r.Context(), req.Text, h.policy.Tags())
	if err != nil {
		slog.Warn("api: render failed", "err", err)
		status := http.StatusInternalServerError
		if errors.Is(err, sanitize.ErrRemoteUnavailable) {
			status = http.StatusBadGateway
		}
		writeErr(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, textRequest{Text: out})
}

func (h *Handler) cacheStats(w http.ResponseWriter, _ *http.Request) {
	c := h.masker.Cache()
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":  c.Len(),
		"capacity": c.Capacity(),
		"evicted":  c.Evicted(),
	})
}

// ---------- helpers ----------

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
