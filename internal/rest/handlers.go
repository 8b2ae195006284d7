// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authgate.
//
// go-authgate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-webauthn/webauthn/protocol"

	"github.com/jeremyhahn/go-authgate/pkg/gate"
	"github.com/jeremyhahn/go-authgate/pkg/metrics"
)

// Handler serves the authentication gateway API.
type Handler struct {
	svc    *gate.Service
	logger *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *gate.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// Validate handles GET /api/validate. The reverse proxy issues a
// subrequest here for every request to a protected virtual host; 200
// authorizes the original request, 401 denies it. The response body is
// empty either way.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.hasValidSession(r) {
		metrics.RecordValidation(metrics.OutcomeAuthorized)
		w.WriteHeader(http.StatusOK)
		return
	}
	metrics.RecordValidation(metrics.OutcomeUnauthorized)
	w.WriteHeader(http.StatusUnauthorized)
}

// AuthenticateStart handles GET /api/authenticate. It returns assertion
// options for the browser, or a null challenge when there is nothing to
// prove: the caller already holds a valid session, or no credentials
// have been enrolled yet. In the latter case a session is issued
// directly so the first credential can be registered.
func (h *Handler) AuthenticateStart(w http.ResponseWriter, r *http.Request) {
	if h.hasValidSession(r) {
		writeJSON(w, http.StatusOK, AuthenticateStartResponse{Challenge: nil})
		return
	}

	options, ref, err := h.svc.BeginAuthentication(r.Context())
	if err != nil {
		h.logger.Error("failed to begin authentication", "error", err)
		metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.StatusFailure)
		writeError(w, http.StatusInternalServerError,
			ErrorCodeInternalError, "failed to begin authentication")
		return
	}

	// Nil options means zero enrolled credentials: issue a session
	// directly so the first credential can be registered.
	if options == nil {
		token, expires, err := h.svc.IssueSession()
		if err != nil {
			h.logger.Error("failed to issue session", "error", err)
			writeError(w, http.StatusInternalServerError,
				ErrorCodeInternalError, "failed to issue session")
			return
		}
		metrics.RecordSessionIssued()
		h.setSessionCookie(w, token, expires)
		writeJSON(w, http.StatusOK, AuthenticateStartResponse{Challenge: nil})
		return
	}

	h.setCeremonyCookie(w, ref)
	writeJSON(w, http.StatusOK, AuthenticateStartResponse{Challenge: options})
}

// AuthenticateFinish handles POST /api/authenticate. The body is the
// assertion produced by the browser. On success it sets the session
// cookie and returns the redirect target; every failure collapses into
// a generic 401.
func (h *Handler) AuthenticateFinish(w http.ResponseWriter, r *http.Request) {
	ref := h.ceremonyRef(r)
	h.clearCeremonyCookie(w)

	response, err := protocol.ParseCredentialRequestResponseBody(r.Body)
	if err != nil {
		h.logger.Debug("failed to parse assertion", "error", err)
		metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.StatusFailure)
		writeError(w, http.StatusUnauthorized,
			ErrorCodeAuthenticationFailed, "authentication failed")
		return
	}

	if err := h.svc.FinishAuthentication(r.Context(), ref, response); err != nil {
		h.logger.Debug("authentication failed", "error", err)
		metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.StatusFailure)
		writeError(w, http.StatusUnauthorized,
			ErrorCodeAuthenticationFailed, "authentication failed")
		return
	}

	token, expires, err := h.svc.IssueSession()
	if err != nil {
		h.logger.Error("failed to issue session", "error", err)
		metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.StatusFailure)
		writeError(w, http.StatusInternalServerError,
			ErrorCodeInternalError, "failed to issue session")
		return
	}

	metrics.RecordCeremony(metrics.CeremonyAuthentication, metrics.StatusSuccess)
	metrics.RecordSessionIssued()
	h.setSessionCookie(w, token, expires)

	redirect := h.svc.ResolveReturnURL(r.URL.Query().Get("redirect_url"))
	writeJSON(w, http.StatusOK, AuthenticateFinishResponse{RedirectURL: redirect})
}

// RegisterStart handles GET /api/register. Requires a valid session.
func (h *Handler) RegisterStart(w http.ResponseWriter, r *http.Request) {
	options, ref, err := h.svc.BeginRegistration(r.Context())
	if err != nil {
		h.logger.Error("failed to begin registration", "error", err)
		metrics.RecordCeremony(metrics.CeremonyRegistration, metrics.StatusFailure)
		writeError(w, http.StatusInternalServerError,
			ErrorCodeInternalError, "failed to begin registration")
		return
	}

	h.setCeremonyCookie(w, ref)
	writeJSON(w, http.StatusOK, options)
}

// RegisterFinish handles POST /api/register. Requires a valid session.
func (h *Handler) RegisterFinish(w http.ResponseWriter, r *http.Request) {
	ref := h.ceremonyRef(r)
	h.clearCeremonyCookie(w)

	var req RegisterFinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest,
			ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	response, err := req.Credential.Parse()
	if err != nil {
		h.logger.Debug("failed to parse attestation", "error", err)
		metrics.RecordCeremony(metrics.CeremonyRegistration, metrics.StatusFailure)
		writeError(w, http.StatusBadRequest,
			ErrorCodeInvalidRequest, "invalid attestation response")
		return
	}

	if err := h.svc.FinishRegistration(r.Context(), ref, req.Name, response); err != nil {
		metrics.RecordCeremony(metrics.CeremonyRegistration, metrics.StatusFailure)
		h.handleRegistrationError(w, err)
		return
	}

	metrics.RecordCeremony(metrics.CeremonyRegistration, metrics.StatusSuccess)
	w.WriteHeader(http.StatusOK)
}

// ListCredentials handles GET /api/credentials. Requires a valid
// session.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CredentialsResponse{
		Data: h.svc.Credentials(r.Context()),
	})
}

// DeleteCredential handles DELETE /api/credentials/{name}. Requires a
// valid session.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.svc.DeleteCredential(r.Context(), name); err != nil {
		if gate.IsCredentialNotFound(err) {
			writeError(w, http.StatusNotFound,
				ErrorCodeNotFound, "credential not found")
			return
		}
		h.logger.Error("failed to delete credential", "error", err)
		writeError(w, http.StatusInternalServerError,
			ErrorCodeInternalError, "failed to delete credential")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRegistrationError(w http.ResponseWriter, err error) {
	switch {
	case gate.IsDuplicateCredentialName(err):
		writeError(w, http.StatusConflict,
			ErrorCodeDuplicateName, "credential name already in use")
	case errors.Is(err, gate.ErrInvalidName):
		writeError(w, http.StatusBadRequest,
			ErrorCodeInvalidRequest, "credential name is required")
	case gate.IsChallengeExpiredOrUnknown(err):
		writeError(w, http.StatusBadRequest,
			ErrorCodeInvalidRequest, "challenge expired or unknown")
	case gate.IsVerificationFailed(err):
		writeError(w, http.StatusBadRequest,
			ErrorCodeInvalidRequest, "attestation verification failed")
	default:
		h.logger.Error("registration failed", "error", err)
		writeError(w, http.StatusInternalServerError,
			ErrorCodeInternalError, "registration failed")
	}
}

// hasValidSession reports whether the request carries a session cookie
// with a valid token.
func (h *Handler) hasValidSession(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	return h.svc.ValidateSession(cookie.Value) == nil
}

// ceremonyRef returns the opaque challenge reference from the ceremony
// cookie, or empty when absent.
func (h *Handler) ceremonyRef(r *http.Request) string {
	cookie, err := r.Cookie(CeremonyCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.svc.Config().RPID,
		Expires:  expires,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) setCeremonyCookie(w http.ResponseWriter, ref string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CeremonyCookie,
		Value:    ref,
		Path:     "/api",
		MaxAge:   int(h.svc.Config().ChallengeTimeout.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCeremonyCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CeremonyCookie,
		Value:    "",
		Path:     "/api",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
