package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"agora/internal/participation/handler/mocks"
	participationModel "agora/internal/participation/models"
	"agora/internal/participation/service"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/participation-mocks.go -package=mocks Service
type ParticipationHandlerSuite struct {
	suite.Suite
}

func TestParticipationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ParticipationHandlerSuite))
}

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger).Register(r)
	return r, mockService
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoRequest(r, testutil.NewJSONRequest(t, method, path, body))
}

func (s *ParticipationHandlerSuite) TestCreateTopic() {
	s.Run("creates and echoes the topic", func() {
		r, mockService := newTestRouter(s.T())
		mockService.EXPECT().
			CreateTopic(gomock.Any(), gomock.Any()).
			Return(nil)

		rec := doJSON(s.T(), r, http.MethodPost, "/topics", participationModel.CreateTopicRequest{
			ID:           "budget",
			Title:        "Budget priorities",
			AllowedKinds: []string{"opinion", "vote"},
			VoteOptions:  []string{"Yes", "No"},
		})
		s.Equal(http.StatusCreated, rec.Code)

		var resp participationModel.TopicResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Equal("budget", resp.ID)
		s.Equal([]string{"opinion", "vote"}, resp.AllowedKinds)
	})

	s.Run("rejects unknown kind before the service", func() {
		r, _ := newTestRouter(s.T())
		rec := doJSON(s.T(), r, http.MethodPost, "/topics", participationModel.CreateTopicRequest{
			ID:           "budget",
			Title:        "t",
			AllowedKinds: []string{"petition"},
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("duplicate topic is 409", func() {
		r, mockService := newTestRouter(s.T())
		mockService.EXPECT().
			CreateTopic(gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeConflict, "topic already exists"))

		rec := doJSON(s.T(), r, http.MethodPost, "/topics", participationModel.CreateTopicRequest{
			ID:           "budget",
			Title:        "t",
			AllowedKinds: []string{"opinion"},
		})
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *ParticipationHandlerSuite) TestListTopics() {
	r, mockService := newTestRouter(s.T())
	closesAt := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	mockService.EXPECT().
		ListOpenTopics(gomock.Any()).
		Return([]participationModel.Topic{{
			ID:           "budget",
			Title:        "Budget priorities",
			ClosesAt:     &closesAt,
			AllowedKinds: []participationModel.SubmissionKind{participationModel.KindOpinion},
		}}, nil)

	rec := doJSON(s.T(), r, http.MethodGet, "/topics", nil)
	s.Equal(http.StatusOK, rec.Code)

	var resp []participationModel.TopicResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp, 1)
	s.Equal("budget", resp[0].ID)
}

func (s *ParticipationHandlerSuite) TestListSubmissions() {
	s.Run("lists without exposing identity links", func() {
		r, mockService := newTestRouter(s.T())
		mockService.EXPECT().
			GetSubmissions(gomock.Any(), "budget", participationModel.SubmissionKind("")).
			Return([]participationModel.Submission{{
				ID:          "sub-1",
				TopicID:     "budget",
				AnonymousID: "anon-1",
				Kind:        participationModel.KindOpinion,
				Content:     "more parks",
				SubmittedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			}}, nil)

		rec := doJSON(s.T(), r, http.MethodGet, "/topics/budget/submissions", nil)
		s.Equal(http.StatusOK, rec.Code)

		resp := testutil.DecodeResponse[[]participationModel.SubmissionResponse](s.T(), rec)
		s.Require().Len(resp, 1)
		s.Equal("sub-1", resp[0].ID)
		s.NotContains(rec.Body.String(), "anon-1")
	})

	s.Run("kind query narrows the listing", func() {
		r, mockService := newTestRouter(s.T())
		mockService.EXPECT().
			GetSubmissions(gomock.Any(), "budget", participationModel.KindVote).
			Return([]participationModel.Submission{{
				ID:      "sub-2",
				TopicID: "budget",
				Kind:    participationModel.KindVote,
				Content: "Yes",
			}}, nil)

		rec := doJSON(s.T(), r, http.MethodGet, "/topics/budget/submissions?kind=vote", nil)
		s.Equal(http.StatusOK, rec.Code)

		resp := testutil.DecodeResponse[[]participationModel.SubmissionResponse](s.T(), rec)
		s.Require().Len(resp, 1)
		s.Equal("vote", resp[0].Kind)
	})

	s.Run("unknown kind query rejected before the service", func() {
		r, _ := newTestRouter(s.T())
		rec := doJSON(s.T(), r, http.MethodGet, "/topics/budget/submissions?kind=petition", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown topic is 404", func() {
		r, mockService := newTestRouter(s.T())
		mockService.EXPECT().
			GetSubmissions(gomock.Any(), "missing", participationModel.SubmissionKind("")).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "topic not found"))

		rec := doJSON(s.T(), r, http.MethodGet, "/topics/missing/submissions", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *ParticipationHandlerSuite) TestSubmit() {
	submitReq := participationModel.SubmitRequest{
		AnonymousID: "anon-1",
		ChallengeID: "ch-1",
		Signature:   "sig",
		TopicID:     "budget",
		Kind:        "vote",
		Content:     "Yes",
	}

	s.Run("records and returns the submission id", func() {
		r, mockService := newTestRouter(s.T())
		mockService.EXPECT().
			Submit(gomock.Any(), service.SubmitCommand{
				AnonymousID: "anon-1",
				ChallengeID: "ch-1",
				Signature:   "sig",
				TopicID:     "budget",
				Kind:        participationModel.KindVote,
				Content:     "Yes",
			}).
			Return(participationModel.Submission{ID: "sub-1"}, nil)

		rec := doJSON(s.T(), r, http.MethodPost, "/submit", submitReq)
		s.Equal(http.StatusCreated, rec.Code)

		var resp participationModel.SubmitResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.True(resp.Success)
		s.Equal("sub-1", resp.SubmissionID)
	})

	s.Run("duplicate submission reports 400, not 409", func() {
		r, mockService := newTestRouter(s.T())
		mockService.EXPECT().
			Submit(gomock.Any(), gomock.Any()).
			Return(participationModel.Submission{}, dErrors.New(dErrors.CodeConflict, "duplicate submission"))

		rec := doJSON(s.T(), r, http.MethodPost, "/submit", submitReq)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "duplicate submission")
	})

	s.Run("failed verification is 403", func() {
		r, mockService := newTestRouter(s.T())
		mockService.EXPECT().
			Submit(gomock.Any(), gomock.Any()).
			Return(participationModel.Submission{}, dErrors.New(dErrors.CodeForbidden, "verification failed: invalid signature"))

		rec := doJSON(s.T(), r, http.MethodPost, "/submit", submitReq)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("unknown kind rejected before the service", func() {
		r, _ := newTestRouter(s.T())
		bad := submitReq
		bad.Kind = "petition"
		rec := doJSON(s.T(), r, http.MethodPost, "/submit", bad)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("empty content rejected before the service", func() {
		r, _ := newTestRouter(s.T())
		bad := submitReq
		bad.Content = "  "
		rec := doJSON(s.T(), r, http.MethodPost, "/submit", bad)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ParticipationHandlerSuite) TestStats() {
	r, mockService := newTestRouter(s.T())
	mockService.EXPECT().
		Stats(gomock.Any()).
		Return(participationModel.StatsResponse{
			EnrolledParticipants: 3,
			TotalTopics:          2,
			TotalSubmissions:     5,
		}, nil)

	rec := doJSON(s.T(), r, http.MethodGet, "/stats", nil)
	s.Equal(http.StatusOK, rec.Code)

	var resp participationModel.StatsResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(3, resp.EnrolledParticipants)
	s.Equal(2, resp.TotalTopics)
	s.Equal(5, resp.TotalSubmissions)
}
