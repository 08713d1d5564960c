package httptransport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"personlens/internal/batch"
	"personlens/internal/correlate"
	"personlens/internal/failover"
	"personlens/internal/providers"
	"personlens/internal/transport/http/mocks"
	id "personlens/pkg/domain"
	"personlens/pkg/domainerrors"
	"personlens/pkg/platform/circuit"
	"personlens/pkg/platform/sentinel"
)

type HandlerSuite struct {
	suite.Suite
	searcher *mocks.MockSearcher
	jobs     *mocks.MockJobService
	worker   *mocks.MockEnqueuer
	router   http.Handler
	health   *failover.HealthTracker
	breakers *circuit.Registry
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.searcher = mocks.NewMockSearcher(ctrl)
	s.jobs = mocks.NewMockJobService(ctrl)
	s.worker = mocks.NewMockEnqueuer(ctrl)
	s.health = failover.NewHealthTracker()
	s.breakers = circuit.NewRegistry()

	handler, err := NewHandler(s.searcher, correlate.NewEngine(), s.jobs, s.worker,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithHealthSources(s.health, s.breakers),
	)
	s.Require().NoError(err)
	s.router = NewRouter(handler)
}

func (s *HandlerSuite) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *HandlerSuite) TestNewHandlerRequiresCollaborators() {
	engine := correlate.NewEngine()

	_, err := NewHandler(nil, engine, s.jobs, s.worker)
	s.Require().ErrorContains(err, "searcher is required")

	_, err = NewHandler(s.searcher, nil, s.jobs, s.worker)
	s.Require().ErrorContains(err, "correlator is required")

	_, err = NewHandler(s.searcher, engine, nil, s.worker)
	s.Require().ErrorContains(err, "job service is required")

	_, err = NewHandler(s.searcher, engine, s.jobs, nil)
	s.Require().ErrorContains(err, "worker is required")
}

func (s *HandlerSuite) TestSearch() {
	s.Run("classifies email queries and returns the correlated profile", func() {
		s.searcher.EXPECT().
			Search(gomock.Any(), providers.KindEmail, map[string]string{"email": "ada@example.com"}).
			Return(&failover.Result{
				Provider: "primary",
				Data: providers.Payload{
					"names":  []any{"Ada Lovelace"},
					"emails": []any{"ada@example.com"},
				},
			}, nil)

		rec := s.do(http.MethodPost, "/v1/search", map[string]any{"query": "ada@example.com"}, nil)

		s.Equal(http.StatusOK, rec.Code)
		body := s.decode(rec)
		s.Equal("primary", body["provider"])
		result := body["result"].(map[string]any)
		profile := result["profile"].(map[string]any)
		s.Equal([]any{"Ada Lovelace"}, profile["names"])
		s.Equal([]any{"ada@example.com"}, profile["emails"])
	})

	s.Run("honors an explicit kind", func() {
		s.searcher.EXPECT().
			Search(gomock.Any(), providers.KindName, map[string]string{"name": "Ada Lovelace"}).
			Return(&failover.Result{Provider: "secondary", Data: providers.Payload{"names": []any{"Ada Lovelace"}}}, nil)

		rec := s.do(http.MethodPost, "/v1/search", map[string]any{"query": "Ada Lovelace", "kind": "name"}, nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("rejects an unknown kind", func() {
		rec := s.do(http.MethodPost, "/v1/search", map[string]any{"query": "ada", "kind": "iris-scan"}, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid_input", s.decode(rec)["error"])
	})

	s.Run("rejects an empty query", func() {
		rec := s.do(http.MethodPost, "/v1/search", map[string]any{"query": "   "}, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("maps provider not-found to 404", func() {
		s.searcher.EXPECT().
			Search(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &failover.AllFailedError{Errors: map[string]error{
				"primary": providers.NewError(providers.ErrorNotFound, "primary", "no match", nil),
			}})

		rec := s.do(http.MethodPost, "/v1/search", map[string]any{"query": "ghost@example.com"}, nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("maps total provider outage to 503", func() {
		s.searcher.EXPECT().
			Search(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &failover.AllFailedError{Errors: map[string]error{
				"primary":   providers.NewError(providers.ErrorOutage, "primary", "connection refused", nil),
				"secondary": providers.NewError(providers.ErrorOutage, "secondary", "connection refused", nil),
			}})

		rec := s.do(http.MethodPost, "/v1/search", map[string]any{"query": "ada@example.com"}, nil)
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.Equal("unavailable", s.decode(rec)["error"])
	})

	s.Run("rejects non-JSON bodies", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewReader([]byte("query=ada")))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusUnsupportedMediaType, rec.Code)
	})
}

func (s *HandlerSuite) TestSubmitJob() {
	userID := id.NewUserID()

	s.Run("accepts a job and enqueues it", func() {
		jobID := id.NewJobID()
		s.jobs.EXPECT().
			Submit(gomock.Any(), userID, []string{"ada@example.com", "555-123-4567"}).
			Return(&batch.Job{ID: jobID, UserID: userID, Status: batch.StatusPending}, nil)
		s.worker.EXPECT().Enqueue(jobID).Return(nil)

		rec := s.do(http.MethodPost, "/v1/jobs",
			map[string]any{"inputs": []string{"ada@example.com", "555-123-4567"}},
			map[string]string{HeaderUserID: userID.String()})

		s.Equal(http.StatusAccepted, rec.Code)
		s.Equal(jobID.String(), s.decode(rec)["jobId"])
	})

	s.Run("requires the user header", func() {
		rec := s.do(http.MethodPost, "/v1/jobs", map[string]any{"inputs": []string{"a@x.com"}}, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects a malformed user header", func() {
		rec := s.do(http.MethodPost, "/v1/jobs", map[string]any{"inputs": []string{"a@x.com"}},
			map[string]string{HeaderUserID: "not-a-uuid"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("propagates validation failures", func() {
		s.jobs.EXPECT().
			Submit(gomock.Any(), userID, gomock.Any()).
			Return(nil, domainerrors.New(domainerrors.CodeInvalidInput, "at least one non-empty input is required"))

		rec := s.do(http.MethodPost, "/v1/jobs", map[string]any{"inputs": []string{}},
			map[string]string{HeaderUserID: userID.String()})

		s.Equal(http.StatusBadRequest, rec.Code)
		body := s.decode(rec)
		s.Equal("invalid_input", body["error"])
		s.Equal("at least one non-empty input is required", body["message"])
	})

	s.Run("propagates usage rejection", func() {
		s.jobs.EXPECT().
			Submit(gomock.Any(), userID, gomock.Any()).
			Return(nil, domainerrors.New(domainerrors.CodeUnavailable, "monthly search limit of 10000 reached"))

		rec := s.do(http.MethodPost, "/v1/jobs", map[string]any{"inputs": []string{"a@x.com"}},
			map[string]string{HeaderUserID: userID.String()})
		s.Equal(http.StatusServiceUnavailable, rec.Code)
	})

	s.Run("maps a full worker queue to 503", func() {
		jobID := id.NewJobID()
		s.jobs.EXPECT().
			Submit(gomock.Any(), userID, gomock.Any()).
			Return(&batch.Job{ID: jobID, UserID: userID, Status: batch.StatusPending}, nil)
		s.worker.EXPECT().Enqueue(jobID).Return(batch.ErrQueueFull)

		rec := s.do(http.MethodPost, "/v1/jobs", map[string]any{"inputs": []string{"a@x.com"}},
			map[string]string{HeaderUserID: userID.String()})
		s.Equal(http.StatusServiceUnavailable, rec.Code)
	})
}

func (s *HandlerSuite) TestGetJob() {
	s.Run("returns the persisted job", func() {
		jobID := id.NewJobID()
		completed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		s.jobs.EXPECT().Get(gomock.Any(), jobID).Return(&batch.Job{
			ID:             jobID,
			UserID:         id.NewUserID(),
			Status:         batch.StatusCompleted,
			Inputs:         []string{"ada@example.com"},
			ProcessedCount: 1,
			SuccessCount:   1,
			Results: []batch.ItemResult{{
				Input:    "ada@example.com",
				Kind:     string(providers.KindEmail),
				Status:   batch.ItemSuccess,
				Provider: "primary",
			}},
			CompletedAt: &completed,
		}, nil)

		rec := s.do(http.MethodGet, "/v1/jobs/"+jobID.String(), nil, nil)

		s.Equal(http.StatusOK, rec.Code)
		body := s.decode(rec)
		s.Equal("COMPLETED", body["status"])
		results := body["results"].([]any)
		s.Len(results, 1)
	})

	s.Run("maps an unknown job to 404", func() {
		jobID := id.NewJobID()
		s.jobs.EXPECT().Get(gomock.Any(), jobID).Return(nil, sentinel.ErrNotFound)

		rec := s.do(http.MethodGet, "/v1/jobs/"+jobID.String(), nil, nil)
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal("not_found", s.decode(rec)["error"])
	})

	s.Run("rejects a malformed job ID", func() {
		rec := s.do(http.MethodGet, "/v1/jobs/not-a-uuid", nil, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("maps store failures to 500", func() {
		jobID := id.NewJobID()
		s.jobs.EXPECT().Get(gomock.Any(), jobID).Return(nil, errors.New("connection reset"))

		rec := s.do(http.MethodGet, "/v1/jobs/"+jobID.String(), nil, nil)
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.Equal("internal", s.decode(rec)["error"])
	})
}

func (s *HandlerSuite) TestHealthz() {
	s.health.RecordHealthy("primary", 120*time.Millisecond)
	s.health.RecordUnhealthy("secondary", errors.New("connection refused"))
	s.breakers.Get("primary")
	s.breakers.RecordFailure("secondary")

	rec := s.do(http.MethodGet, "/healthz", nil, nil)

	s.Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal("ok", body["status"])

	providerStates := body["providers"].([]any)
	s.Len(providerStates, 2)

	breakerStates := body["breakers"].([]any)
	s.Len(breakerStates, 2)
}

func (s *HandlerSuite) TestRequestIDEchoedOnResponses() {
	rec := s.do(http.MethodGet, "/healthz", nil, nil)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
}
