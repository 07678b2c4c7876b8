package handler

import (
	"net/http"

	"github.com/mcoot/quizroom/internal/api/middleware"
	"github.com/mcoot/quizroom/internal/api/request"
	"github.com/mcoot/quizroom/internal/api/response"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/quiz"
)

// QuestionHandler handles posing and answering questions
type QuestionHandler struct {
	quiz *quiz.Service
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(quiz *quiz.Service) *QuestionHandler {
	return &QuestionHandler{quiz: quiz}
}

// Add handles POST /session/{sessionID}/question
func (h *QuestionHandler) Add(w http.ResponseWriter, r *http.Request) {
	s := middleware.MustGetSession(r.Context())
	author := middleware.MustGetPlayer(r.Context())

	var req request.AddQuestionRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	q, err := h.quiz.AddQuestion(r.Context(), s, author, req.Prompt, req.Answer, req.Points)
	if err != nil {
		WriteError(w, err)
		return
	}

	// Subscribers see the question, not its answer
	out := response.QuestionFromModel(q)
	out.Answer = ""
	response.Created(w, out)
}

// List handles GET /session/{sessionID}/question
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	s := middleware.MustGetSession(r.Context())
	viewer := middleware.MustGetPlayer(r.Context())

	questions, err := h.quiz.ListQuestions(r.Context(), s, viewer)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.QuestionsFromModel(questions))
}

// Answer handles POST /session/{sessionID}/question/{questionID}/answer
func (h *QuestionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	s := middleware.MustGetSession(r.Context())
	p := middleware.MustGetPlayer(r.Context())

	var req request.SubmitAnswerRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.quiz.SubmitAnswer(r.Context(), s, p, model.QuestionID(req.QuestionID), req.Answer)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.AnswerResultFromQuiz(result))
}
