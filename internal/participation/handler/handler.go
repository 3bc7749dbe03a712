package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	participationModel "agora/internal/participation/models"
	"agora/internal/participation/service"
	"agora/internal/transport/http/shared"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/requestcontext"
)

// Service defines the participation operations the transport layer depends on.
type Service interface {
	CreateTopic(ctx context.Context, t participationModel.Topic) error
	ListOpenTopics(ctx context.Context) ([]participationModel.Topic, error)
	GetSubmissions(ctx context.Context, topicID string, kind participationModel.SubmissionKind) ([]participationModel.Submission, error)
	Submit(ctx context.Context, cmd service.SubmitCommand) (participationModel.Submission, error)
	Stats(ctx context.Context) (participationModel.StatsResponse, error)
}

// Handler handles topic and submission endpoints.
type Handler struct {
	logger        *slog.Logger
	participation Service
}

func New(participation Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		participation: participation,
	}
}

// Register attaches the participation routes to the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/topics", h.handleListTopics)
	r.Post("/topics", h.handleCreateTopic)
	r.Get("/topics/{topicID}/submissions", h.handleListSubmissions)
	r.Post("/submit", h.handleSubmit)
	r.Get("/stats", h.handleStats)
}

func (h *Handler) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req participationModel.CreateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	t, err := req.Validate()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.participation.CreateTopic(ctx, t); err != nil {
		h.logWarn(ctx, "topic creation refused", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, participationModel.NewTopicResponse(t))
}

func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.participation.ListOpenTopics(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp := make([]participationModel.TopicResponse, 0, len(topics))
	for _, t := range topics {
		resp = append(resp, participationModel.NewTopicResponse(t))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topicID := chi.URLParam(r, "topicID")

	var kind participationModel.SubmissionKind
	if name := r.URL.Query().Get("kind"); name != "" {
		parsed, ok := participationModel.ParseSubmissionKind(name)
		if !ok {
			shared.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "unknown submission kind %q", name))
			return
		}
		kind = parsed
	}

	subs, err := h.participation.GetSubmissions(ctx, topicID, kind)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp := make([]participationModel.SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, participationModel.NewSubmissionResponse(sub))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req participationModel.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	kind, err := req.Validate()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	sub, err := h.participation.Submit(ctx, service.SubmitCommand{
		AnonymousID: req.AnonymousID,
		ChallengeID: req.ChallengeID,
		Signature:   req.Signature,
		TopicID:     req.TopicID,
		Kind:        kind,
		Content:     req.Content,
	})
	if err != nil {
		h.logWarn(ctx, "submission refused", err)
		// A duplicate submission is a rejected request, not a resource
		// conflict the client can resolve, so it reports as 400.
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			shared.WriteErrorStatus(w, http.StatusBadRequest, err)
			return
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, participationModel.SubmitResponse{
		Success:      true,
		SubmissionID: sub.ID,
		Message:      "submission recorded",
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.participation.Stats(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) logWarn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
