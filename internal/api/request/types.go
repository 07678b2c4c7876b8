package request

// CreateSessionRequest creates a session administered by the caller
type CreateSessionRequest struct {
	Username string `path:"username" validate:"required,max=64"`
}

// JoinSessionRequest redeems a join token
type JoinSessionRequest struct {
	JoinToken string `path:"joinToken" validate:"required"`
	Username  string `path:"username" validate:"required,max=64"`
}

// RenamePlayerRequest changes the calling player's username
type RenamePlayerRequest struct {
	Username string `path:"username" validate:"required,max=64"`
}

// AddQuestionRequest is the request body for posing a question
type AddQuestionRequest struct {
	Prompt string `json:"prompt" validate:"required,max=1024"`
	Answer string `json:"answer" validate:"required,max=256"`
	Points int    `json:"points" validate:"min=1,max=1000"`
}

// SubmitAnswerRequest answers one question
type SubmitAnswerRequest struct {
	QuestionID string `path:"questionID" validate:"required"`
	Answer     string `json:"answer" validate:"required,max=256"`
}
