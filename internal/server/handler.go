package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/common"
	"github.com/dmitrijs2005/secretsync/internal/logging"
	"github.com/dmitrijs2005/secretsync/internal/server/storage"
)

// maxBodySize caps request bodies at the advertised per-value ceiling.
const maxBodySize = 25 << 20

// Optional headers a client may attach to a blob POST; the service folds
// them into the group's metadata record.
const (
	headerFileCount = "X-Secretsync-File-Count"
	headerTotalSize = "X-Secretsync-Total-Size"
)

// Handler serves the key-value HTTP API:
//
//	GET/POST/DELETE /secrets/{group}   blob bytes
//	GET/POST/DELETE /metadata/{group}  metadata JSON
//	GET             /list              group names
//
// Every route requires the shared bearer token.
type Handler struct {
	repo   storage.Repository
	token  string
	logger logging.Logger
}

func NewHandler(repo storage.Repository, token string, logger logging.Logger) *Handler {
	return &Handler{repo: repo, token: token, logger: logger}
}

// Router builds the route table. Method matching (405 for the rest) comes
// from the mux method patterns.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /secrets/{group}", h.getBlob)
	mux.HandleFunc("POST /secrets/{group}", h.putBlob)
	mux.HandleFunc("DELETE /secrets/{group}", h.deleteBlob)

	mux.HandleFunc("GET /metadata/{group}", h.getMetadata)
	mux.HandleFunc("POST /metadata/{group}", h.putMetadata)
	mux.HandleFunc("DELETE /metadata/{group}", h.deleteMetadata)

	mux.HandleFunc("GET /list", h.listGroups)

	return h.withAuth(mux)
}

// withAuth rejects requests that do not carry the shared bearer token.
func (h *Handler) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) getBlob(w http.ResponseWriter, r *http.Request) {
	group := r.PathValue("group")

	data, err := h.repo.LoadBlob(r.Context(), group)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}

func (h *Handler) putBlob(w http.ResponseWriter, r *http.Request) {
	group := r.PathValue("group")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return
	}

	hints, err := parseHints(r.Header)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.repo.SaveBlob(r.Context(), group, data, hints); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteBlob(w http.ResponseWriter, r *http.Request) {
	group := r.PathValue("group")

	if err := h.repo.DeleteBlob(r.Context(), group); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getMetadata(w http.ResponseWriter, r *http.Request) {
	group := r.PathValue("group")

	md, err := h.repo.LoadMetadata(r.Context(), group)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(md)
}

func (h *Handler) putMetadata(w http.ResponseWriter, r *http.Request) {
	group := r.PathValue("group")

	var md backend.Metadata
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&md); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.repo.SaveMetadata(r.Context(), group, &md); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteMetadata(w http.ResponseWriter, r *http.Request) {
	group := r.PathValue("group")

	if err := h.repo.DeleteMetadata(r.Context(), group); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.repo.ListGroups(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if groups == nil {
		groups = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(groups)
}

// parseHints reads the optional upload annotation headers. Both headers
// must be present and numeric for a hint record to be produced.
func parseHints(hdr http.Header) (*storage.Hints, error) {
	fc := hdr.Get(headerFileCount)
	ts := hdr.Get(headerTotalSize)
	if fc == "" && ts == "" {
		return nil, nil
	}

	fileCount, err := strconv.Atoi(fc)
	if err != nil {
		return nil, err
	}
	totalSize, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, err
	}
	return &storage.Hints{FileCount: fileCount, TotalSize: totalSize}, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.logger.Error(r.Context(), "storage error", "path", r.URL.Path, "error", err.Error())
	w.WriteHeader(http.StatusInternalServerError)
}
