package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/star/skywatch/internal/catalog"
	"github.com/star/skywatch/internal/report"
	"github.com/star/skywatch/internal/request"
)

// maxBodyBytes caps request bodies; a calculate request carries its own
// element sets, so this leaves room for a few thousand objects.
const maxBodyBytes = 4 << 20

type handlers struct {
	engine  *Engine
	catalog catalog.Catalog
	timeout time.Duration
	logger  *slog.Logger
}

func (h *handlers) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request) (request.Params, bool) {
	p, err := request.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, report.NewFailure(err, "Invalid request parameters"))
		return request.Params{}, false
	}
	return p, true
}

func (h *handlers) calculate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decode(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := h.engine.Calculate(ctx, p)
	if err != nil {
		h.fail(w, err, p)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) qualify(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decode(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := h.engine.Qualify(ctx, p)
	if err != nil {
		h.fail(w, err, p)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) fail(w http.ResponseWriter, err error, p request.Params) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, request.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrUnavailable), errors.Is(err, ErrNoCatalog):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	mode := ""
	if p.Mode != nil {
		mode = p.Mode.Name()
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, report.NewFailure(err, FailureMessage(mode)))
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeJSON(w, http.StatusServiceUnavailable, report.NewFailure(ErrNoCatalog, "Search operation failed"))
		return
	}

	var q catalog.Query
	if s := strings.TrimSpace(r.URL.Query().Get("norad_id")); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, report.NewFailure(
				errors.New("norad_id must be a positive integer"), "Invalid search term"))
			return
		}
		q.NORADID = id
	}
	q.Name = strings.TrimSpace(r.URL.Query().Get("name"))
	if q.Empty() {
		writeJSON(w, http.StatusBadRequest, report.NewFailure(
			errors.New("search term is required"), "Please provide either name or norad_id parameter"))
		return
	}

	entries, err := h.catalog.Search(r.Context(), q, catalog.SearchLimit)
	if err != nil {
		h.logger.Error("search failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, report.NewFailure(err, "Search operation failed"))
		return
	}
	writeJSON(w, http.StatusOK, report.NewSearch(q, entries))
}
