package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/response"
	"github.com/examforge/examforge-backend/internal/service"
	"github.com/examforge/examforge-backend/internal/validator"
)

// ExamAdminHandler exposes the exam authoring surface to the external
// content editor, plus the finished-attempt report.
type ExamAdminHandler struct {
	examService    *service.ExamService
	gradingService *service.GradingService
}

// NewExamAdminHandler creates a new ExamAdminHandler.
func NewExamAdminHandler(examService *service.ExamService, gradingService *service.GradingService) *ExamAdminHandler {
	return &ExamAdminHandler{
		examService:    examService,
		gradingService: gradingService,
	}
}

// ListExams godoc
// GET /api/v1/admin/exams
func (h *ExamAdminHandler) ListExams(c *gin.Context) {
	exams, err := h.examService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrStorage)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExam godoc
// GET /api/v1/admin/exams/:id
// Full definition including correctness flags, admin surface only.
func (h *ExamAdminHandler) GetExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrStorage)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *ExamAdminHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrStorage)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/admin/exams/:id
// Partial metadata update; question content is edited via the question
// endpoint.
func (h *ExamAdminHandler) UpdateExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.UpdateMetadata(c.Request.Context(), examID, req)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrStorage)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:id
// Cascades to the exam's sessions and their answers in one transaction.
func (h *ExamAdminHandler) DeleteExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID); err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrStorage)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// AppendQuestion godoc
// POST /api/v1/admin/exams/:id/questions
// Appends one question; ids are assigned from the definition's sequence
// before persistence.
func (h *ExamAdminHandler) AppendQuestion(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AppendQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.examService.AppendQuestion(c.Request.Context(), examID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, model.ErrUnknownQuestionType),
			errors.Is(err, model.ErrTooFewChoices),
			errors.Is(err, model.ErrSingleChoiceCorrect),
			errors.Is(err, model.ErrNoCorrectChoice),
			errors.Is(err, model.ErrFreeResponseChoices),
			errors.Is(err, model.ErrCorrectIndexOutRange):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"detail": err.Error()})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrStorage)
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ListFinishedAttempts godoc
// GET /api/v1/admin/exams/:id/attempts
// Per-attempt scores for an exam, computed by the scoring engine.
func (h *ExamAdminHandler) ListFinishedAttempts(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	report, err := h.gradingService.ListFinishedAttempts(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrStorage)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": report})
}
