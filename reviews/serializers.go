package reviews

import (
	"time"

	"yamdb-api/common"
)

// ReviewResponse is the wire shape for a review; author is their username
type ReviewResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// CommentResponse is the wire shape for a comment
type CommentResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

// ReviewRequest is the write shape for reviews. Author and title come from
// the request context and path, never the payload.
type ReviewRequest struct {
	Text  string `json:"text"`
	Score *int   `json:"score"`
}

// CommentRequest is the write shape for comments
type CommentRequest struct {
	Text string `json:"text"`
}

func NewReviewResponse(r *ReviewModel) ReviewResponse {
	resp := ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
	if r.Author != nil {
		resp.Author = r.Author.Username
	}
	return resp
}

func NewCommentResponse(cm *CommentModel) CommentResponse {
	resp := CommentResponse{
		ID:      cm.ID,
		Text:    cm.Text,
		PubDate: cm.PubDate,
	}
	if cm.Author != nil {
		resp.Author = cm.Author.Username
	}
	return resp
}

// validateReview checks the payload rules shared by create and update.
// requireAll distinguishes create (all fields) from partial update.
func validateReview(req *ReviewRequest, requireAll bool) common.ValidationErrors {
	var errs common.ValidationErrors
	if requireAll && req.Text == "" {
		errs.Add("text", "Text is required")
	}
	if requireAll && req.Score == nil {
		errs.Add("score", "Score is required")
	}
	if req.Score != nil && (*req.Score < 1 || *req.Score > 10) {
		errs.Add("score", "Score must be between 1 and 10")
	}
	return errs
}
