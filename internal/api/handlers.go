package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/notafacil/nfce-collector/internal/feedback"
	"github.com/notafacil/nfce-collector/internal/ingestion"
	"github.com/notafacil/nfce-collector/internal/nfce"
	"github.com/notafacil/nfce-collector/internal/render"
	"github.com/notafacil/nfce-collector/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	ingestionSvc *ingestion.Service
	feedback     *feedback.Queue
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

// errorCode maps a failure to its stable machine code, so clients can
// tell a malformed page from a bad timestamp without string matching.
func errorCode(err error) string {
	var extractionErr *nfce.ExtractionError
	var timestampErr *nfce.TimestampFormatError
	switch {
	case errors.Is(err, ingestion.ErrInvalidURL):
		return "invalid_url"
	case errors.As(err, &extractionErr):
		return extractionErr.Code()
	case errors.As(err, &timestampErr):
		return timestampErr.Code()
	case errors.Is(err, render.ErrRenderTimeout):
		return "render_timeout"
	default:
		return "internal"
	}
}

// --- Health ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("nfce-collector up"))
}

// --- CreateNota ---

// CreateNota accepts an NFC-e detail page URL in the "content" form field,
// runs the full ingestion pipeline and answers with the canonical receipt.
// Every outcome is also pushed to the feedback queue for the polling UI.
func (h *Handlers) CreateNota(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.feedback.Push(feedback.Entry{Code: 400, Message: "Formulario invalido."})
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid form: " + err.Error(),
			"code":  "invalid_form",
		})
		return
	}
	content := r.FormValue("content")

	receipt, err := h.ingestionSvc.IngestURL(r.Context(), content)
	switch {
	case err == nil:
		h.feedback.Push(feedback.Entry{Code: 200, Message: "Nova nota inserida com sucesso."})
		writeJSON(w, http.StatusOK, receipt)

	case errors.Is(err, ingestion.ErrInvalidURL):
		h.feedback.Push(feedback.Entry{Code: 400, Message: "Conteudo nao bate com link esperado."})
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Conteudo nao bate com link esperado",
			"code":  errorCode(err),
		})

	case errors.Is(err, repository.ErrDuplicateKey):
		h.feedback.Push(feedback.Entry{Code: 409, Message: "Nota ja existe."})
		writeJSON(w, http.StatusConflict, map[string]string{"erro": "Nota ja existe."})

	default:
		slog.Error("ingest failed", "err", err)
		h.feedback.Push(feedback.Entry{Code: 400, Message: "Um erro ocorreu: " + err.Error()})
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
			"code":  errorCode(err),
		})
	}
}

// --- PopFeedback ---

// PopFeedback returns (and removes) the most recent feedback entry, or a
// code-0 placeholder when nothing is pending.
func (h *Handlers) PopFeedback(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.feedback.Pop())
}
