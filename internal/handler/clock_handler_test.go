package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/middleware"
	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/response"
	"github.com/examforge/examforge-backend/internal/service"
)

// stubSessionStore serves a single session, a miss, or a storage error.
type stubSessionStore struct {
	session *model.ExamSession
	err     error
}

func (s *stubSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.session == nil || s.session.ID != id {
		return nil, pgx.ErrNoRows
	}
	cp := *s.session
	return &cp, nil
}

func (s *stubSessionStore) GetByExamAndParticipant(context.Context, uuid.UUID, int64) (*model.ExamSession, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubSessionStore) GetLatestByParticipant(context.Context, int64) (*model.ExamSession, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubSessionStore) Create(context.Context, *model.ExamSession) error { return nil }

func (s *stubSessionStore) Finalize(context.Context, uuid.UUID, func([]model.Answer) model.GradeResult) (model.GradeResult, error) {
	return model.GradeResult{}, pgx.ErrNoRows
}

func (s *stubSessionStore) ListFinishedByExam(context.Context, uuid.UUID) ([]model.ExamSession, error) {
	return nil, nil
}

func clockRequest(t *testing.T, store service.SessionStore, sessionID uuid.UUID, participantID int64) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := service.NewSessionService(store, nil, zerolog.Nop())
	h := NewClockHandler(sessions, zerolog.Nop(), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ws/v1/sessions/"+sessionID.String()+"/clock", nil)
	c.Params = gin.Params{{Key: "session_id", Value: sessionID.String()}}
	c.Set(middleware.ContextKeyClaims, &service.Claims{
		Role:          service.RoleParticipant,
		ParticipantID: participantID,
	})

	h.SessionClockStream(c)
	return w
}

func decodeErrCode(t *testing.T, w *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var body struct {
		Error struct {
			Code response.ErrCode `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	return body.Error.Code
}

func TestClockStreamErrorMapping(t *testing.T) {
	active := &model.ExamSession{
		ID:            uuid.New(),
		ExamID:        uuid.New(),
		ParticipantID: 7,
		StartTime:     time.Now(),
		ExpiresAt:     time.Now().Add(10 * time.Minute),
		Active:        true,
	}

	t.Run("unknown session is 404", func(t *testing.T) {
		w := clockRequest(t, &stubSessionStore{}, uuid.New(), 7)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		if code := decodeErrCode(t, w); code != response.ErrNotFound {
			t.Fatalf("code = %q, want %q", code, response.ErrNotFound)
		}
	})

	t.Run("foreign session is 404", func(t *testing.T) {
		w := clockRequest(t, &stubSessionStore{session: active}, active.ID, 99)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("expired session is 403", func(t *testing.T) {
		expired := *active
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		w := clockRequest(t, &stubSessionStore{session: &expired}, expired.ID, 7)
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", w.Code)
		}
		if code := decodeErrCode(t, w); code != response.ErrNoActiveSession {
			t.Fatalf("code = %q, want %q", code, response.ErrNoActiveSession)
		}
	})

	t.Run("storage failure is 500", func(t *testing.T) {
		w := clockRequest(t, &stubSessionStore{err: errors.New("connection refused")}, active.ID, 7)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
		if code := decodeErrCode(t, w); code != response.ErrStorage {
			t.Fatalf("code = %q, want %q", code, response.ErrStorage)
		}
	})
}
