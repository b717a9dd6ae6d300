package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examforge/examforge-backend/internal/middleware"
	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/response"
	"github.com/examforge/examforge-backend/internal/service"
	"github.com/examforge/examforge-backend/internal/validator"
)

// SessionHandler handles participant-facing attempt endpoints: start,
// status, question list, answers, finish.
type SessionHandler struct {
	sessionService *service.SessionService
	answerService  *service.AnswerService
	gradingService *service.GradingService
	examService    *service.ExamService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	sessionService *service.SessionService,
	answerService *service.AnswerService,
	gradingService *service.GradingService,
	examService *service.ExamService,
) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		answerService:  answerService,
		gradingService: gradingService,
		examService:    examService,
	}
}

// failFromErr maps engine errors to stable response codes.
func failFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrExpired):
		response.Fail(c, http.StatusConflict, response.ErrExamExpired)
	case errors.Is(err, service.ErrAlreadyTaken):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyTaken)
	case errors.Is(err, service.ErrExamNotAvailable):
		response.Fail(c, http.StatusConflict, response.ErrExamNotOpen)
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusForbidden, response.ErrNoActiveSession)
	case errors.Is(err, service.ErrInvalidSelection):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSelection)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrStorage)
	}
}

// StartSession godoc
// POST /api/v1/exams/:exam_id/start
// Starts a fresh attempt or resumes the participant's active one.
func (h *SessionHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, resumed, err := h.sessionService.Start(c.Request.Context(), claims.ParticipantID, examID, claims.DeviceTag)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_id": session.ID,
		"expires_at": session.ExpiresAt,
		"resumed":    resumed,
	})
}

// GetStatus godoc
// GET /api/v1/session/status
// Reports the participant's most recent session. Pure read; expiry is
// derived here, never written.
func (h *SessionHandler) GetStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	status, err := h.sessionService.Status(c.Request.Context(), claims.ParticipantID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, status)
}

// ListQuestions godoc
// GET /api/v1/sessions/:session_id/questions
// Returns the session's questions in randomized order, without
// correctness flags.
func (h *SessionHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.GetOwnedUsable(c.Request.Context(), sessionID, claims.ParticipantID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	questions, err := h.examService.QuestionsForParticipant(c.Request.Context(), session.ExamID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"total":     len(questions),
		"questions": questions,
	})
}

// SubmitAnswer godoc
// POST /api/v1/sessions/:session_id/answers
// Records (replacing wholesale) the answer for one question.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.answerService.Submit(c.Request.Context(), claims.ParticipantID, sessionID, req); err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}

// Finish godoc
// POST /api/v1/sessions/:session_id/finish
// Finalizes the session and returns its grade. One-shot: a second call
// fails instead of re-grading.
func (h *SessionHandler) Finish(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.gradingService.Finish(c.Request.Context(), claims.ParticipantID, sessionID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
