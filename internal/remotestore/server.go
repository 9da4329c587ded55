package remotestore

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/store"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// Handler serves one store.Store over the remotestore wire protocol,
// generalizing cmd/node/main.go's mux.HandleFunc("/shard/", ...) routing
// to the region-based store.Store contract. Routes returns a mux serving
// the /store/* paths; cmd/shardnode uses that mux as its root handler.
type Handler struct {
	Store store.Store
	cache *cache.TemporaryCache
}

// NewHandler wraps s for HTTP serving.
func NewHandler(s store.Store) *Handler {
	return &Handler{Store: s, cache: cache.New()}
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/store/status", h.handleStatus)
	mux.HandleFunc("/store/read", h.handleRead)
	mux.HandleFunc("/store/write", h.handleWrite)
	mux.HandleFunc("/store/backfill/begin", h.handleBackfillBegin)
	mux.HandleFunc("/store/backfill/chunk", h.handleBackfillChunk)
	mux.HandleFunc("/store/backfill/end", h.handleBackfillEnd)
	mux.HandleFunc("/store/backfill/cancel", h.handleBackfillCancel)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("remotestore: encode response: %v", err)
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, xerrors.ErrUserQuery), errors.Is(err, xerrors.ErrInvariant):
		status = http.StatusBadRequest
	case errors.Is(err, xerrors.ErrInterrupted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, xerrors.ErrTransient):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Coherent:    h.Store.Coherent(),
		Backfilling: h.Store.Backfilling(),
		Timestamp:   h.Store.Timestamp(),
	})
}

func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request) {
	var req readRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	q, err := decodeQuery(req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.Store.Read(q, req.Otok, h.cache, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	env, err := encodeReadResponse(resp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readResult{Response: env})
}

func (h *Handler) handleWrite(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	wr, err := decodeWrite(req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.Store.Write(wr, req.TS, req.Otok, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	env, err := encodeWriteResponse(resp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, writeResult{Response: env})
}

func (h *Handler) handleBackfillBegin(w http.ResponseWriter, _ *http.Request) {
	req, err := h.Store.BackfilleeBegin()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) handleBackfillChunk(w http.ResponseWriter, r *http.Request) {
	var chunk store.BackfillChunk
	if err := json.NewDecoder(r.Body).Decode(&chunk); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Store.BackfilleeChunk(chunk); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) handleBackfillEnd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Timestamp protocol.StateTimestamp `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Store.BackfilleeEnd(body.Timestamp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) handleBackfillCancel(w http.ResponseWriter, _ *http.Request) {
	if err := h.Store.BackfilleeCancel(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
