package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"padhub/api/internal/access"
	"padhub/api/internal/search"
	"padhub/api/internal/store"
	"padhub/api/internal/util"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"store": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["store"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/stats" {
		groups, err := s.service.CountGroups(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		pads, err := s.service.CountPads(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": groups, "pads": pads})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		if s.service.search == nil {
			writeJSON(w, http.StatusOK, search.Response{Results: []search.Result{}})
			return
		}
		q := search.Query{
			Text:       r.URL.Query().Get("q"),
			PublicOnly: r.URL.Query().Get("public") == "1",
		}
		if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
			q.Limit = limit
		}
		writeJSON(w, http.StatusOK, s.service.search.Search(q))
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) >= 2 && parts[0] == "api" {
		switch parts[1] {
		case "groups":
			s.handleGroups(w, r, parts[2:])
			return
		case "pads":
			s.handlePads(w, r, parts[2:])
			return
		case "users":
			s.handleUsers(w, r, parts[2:])
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleGroups(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodPost:
		var params GroupParams
		if err := decodeBody(r, &params); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		group, err := s.service.CreateOrUpdateGroup(r.Context(), params)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sanitizeGroup(group))

	case len(rest) == 1 && r.Method == http.MethodGet:
		group, pads, err := s.service.GetGroupWithPads(r.Context(), rest[0])
		if err != nil {
			s.fail(w, err)
			return
		}
		uid, password := callerAuth(r)
		if !access.CanReadGroup(group, uid, password) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "access denied", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"group": sanitizeGroup(group), "pads": sanitizePads(pads)})

	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteGroup(r.Context(), rest[0]); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 2 && rest[1] == "resign" && r.Method == http.MethodPost:
		var body struct {
			UserID string `json:"userId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		group, err := s.service.ResignFromGroup(r.Context(), rest[0], body.UserID)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sanitizeGroup(group))

	case len(rest) == 2 && (rest[1] == "invite" || rest[1] == "share") && r.Method == http.MethodPost:
		var body struct {
			LoginsOrEmails []string `json:"loginsOrEmails"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		group, outcome, err := s.service.TransferMembership(r.Context(), rest[1] == "invite", rest[0], body.LoginsOrEmails)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"group":    sanitizeGroup(group),
			"accepted": outcome.Accepted,
			"refused":  outcome.Refused,
		})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handlePads(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodPost:
		var params PadParams
		if err := decodeBody(r, &params); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		pad, err := s.service.CreateOrUpdatePad(r.Context(), params)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sanitizePad(pad))

	case len(rest) == 1 && r.Method == http.MethodGet:
		pad, err := s.service.GetPad(r.Context(), rest[0])
		if err != nil {
			s.fail(w, err)
			return
		}
		group, err := s.service.GetGroup(r.Context(), pad.Group)
		if err != nil {
			s.fail(w, err)
			return
		}
		uid, password := callerAuth(r)
		if !access.CanReadPad(pad, group, uid, password) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "access denied", nil)
			return
		}
		writeJSON(w, http.StatusOK, sanitizePad(pad))

	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeletePad(r.Context(), rest[0]); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) != 2 || r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	user, err := s.service.GetUser(r.Context(), rest[0])
	if err != nil {
		s.fail(w, err)
		return
	}

	switch rest[1] {
	case "groups":
		view, err := s.service.GetGroupsForUser(r.Context(), user, r.URL.Query().Get("extra") == "1")
		if err != nil {
			s.fail(w, err)
			return
		}
		view.Groups = sanitizeGroups(view.Groups)
		view.Pads = sanitizePads(view.Pads)
		writeJSON(w, http.StatusOK, view)
	case "bookmarks":
		groups, err := s.service.GetBookmarkedGroups(r.Context(), user)
		if err != nil {
			s.fail(w, err)
			return
		}
		pads, err := s.service.GetBookmarkedPads(r.Context(), user)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": sanitizeGroups(groups), "pads": sanitizePads(pads)})
	case "watchlist":
		groups, err := s.service.GetWatchedGroups(r.Context(), user)
		if err != nil {
			s.fail(w, err)
			return
		}
		pads, err := s.service.GetWatchedPads(r.Context(), user)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": sanitizeGroups(groups), "pads": sanitizePads(pads)})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// fail maps a service error to the HTTP error envelope, keeping domain
// codes stable for callers.
func (s *HTTPServer) fail(w http.ResponseWriter, err error) {
	var de *DomainError
	if errors.As(err, &de) {
		writeError(w, de.Status, de.Code, de.Message, de.Details)
		return
	}
	writeError(w, http.StatusInternalServerError, "STORAGE", err.Error(), nil)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = util.NewID("req")
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// callerAuth pulls the caller's identity and plaintext password from the
// request; both are optional.
func callerAuth(r *http.Request) (uid, password string) {
	return r.URL.Query().Get("uid"), r.URL.Query().Get("password")
}

// Stored password hashes never leave the API surface; callers submit
// passwords, they never read them back.
func sanitizeGroup(g store.Group) store.Group {
	g.Password = ""
	return g
}

func sanitizeGroups(groups map[string]store.Group) map[string]store.Group {
	for id, g := range groups {
		groups[id] = sanitizeGroup(g)
	}
	return groups
}

func sanitizePad(p store.Pad) store.Pad {
	p.Password = store.Override[string]{}
	return p
}

func sanitizePads(pads map[string]store.Pad) map[string]store.Pad {
	for id, p := range pads {
		pads[id] = sanitizePad(p)
	}
	return pads
}

func setCORSHeaders(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
