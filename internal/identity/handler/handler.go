package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	identityModel "agora/internal/identity/models"
	"agora/internal/transport/http/shared"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/requestcontext"
)

// Service defines the identity operations the transport layer depends on.
type Service interface {
	Enroll(ctx context.Context, factors []identityModel.FactorKind) (identityModel.EnrolledCredential, error)
	IssueChallenge(ctx context.Context, anonymousID string) (identityModel.Challenge, error)
	Verify(ctx context.Context, challengeID, signature, claimedID string) (identityModel.VerificationResult, error)
	Revoke(ctx context.Context, anonymousID string) error
}

// Handler handles enrollment and verification endpoints.
type Handler struct {
	logger   *slog.Logger
	identity Service
}

func New(identity Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		identity: identity,
	}
}

// Register attaches the identity routes to the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/enroll", h.handleEnroll)
	r.Post("/challenge", h.handleChallenge)
	r.Post("/verify", h.handleVerify)
	r.Post("/revoke", h.handleRevoke)
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identityModel.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	req.Normalize()
	factors, err := req.Validate()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	cred, err := h.identity.Enroll(ctx, factors)
	if err != nil {
		h.logWarn(ctx, "enrollment refused", err)
		shared.WriteError(w, err)
		return
	}

	names := make([]string, len(cred.Factors))
	for i, f := range cred.Factors {
		names[i] = string(f)
	}
	shared.WriteJSON(w, http.StatusCreated, identityModel.EnrollResponse{
		AnonymousID:     cred.AnonymousID,
		PublicKey:       cred.PublicKey,
		SecretMaterial:  cred.SecretMaterial,
		FactorsEnrolled: names,
	})
}

func (h *Handler) handleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identityModel.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.AnonymousID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "anonymous_id is required"))
		return
	}

	ch, err := h.identity.IssueChallenge(ctx, req.AnonymousID)
	if err != nil {
		h.logWarn(ctx, "challenge refused", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, identityModel.ChallengeResponse{
		ChallengeID: ch.ID,
		Nonce:       ch.Nonce,
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identityModel.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.AnonymousID == "" || req.ChallengeID == "" || req.Signature == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "anonymous_id, challenge_id, and signature are required"))
		return
	}

	result, err := h.identity.Verify(ctx, req.ChallengeID, req.Signature, req.AnonymousID)
	if err != nil {
		h.logWarn(ctx, "verification errored", err)
		shared.WriteError(w, err)
		return
	}

	// A failed verification is a protocol outcome, not a transport error.
	shared.WriteJSON(w, http.StatusOK, identityModel.VerifyResponse{
		Verified: result.Verified,
		Reason:   result.Reason,
	})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identityModel.RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.AnonymousID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "anonymous_id is required"))
		return
	}

	if err := h.identity.Revoke(ctx, req.AnonymousID); err != nil {
		h.logWarn(ctx, "revocation refused", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logWarn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
