package catalog

// TermResponse is the wire shape shared by categories and genres
type TermResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TermRequest is the creation body for categories and genres.
// Slug is optional; it is derived from the name when omitted.
type TermRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

// TitleResponse is the read shape: nested category/genre plus the
// computed rating (null when the title has no reviews)
type TitleResponse struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Year        int            `json:"year"`
	Rating      *float64       `json:"rating"`
	Description string         `json:"description"`
	Genre       []TermResponse `json:"genre"`
	Category    *TermResponse  `json:"category"`
}

// TitleRequest is the write shape: category and genres as slug references
type TitleRequest struct {
	Name        string   `json:"name"`
	Year        *int     `json:"year"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Genre       []string `json:"genre"`
}

// NewTitleResponse shapes a title with its precomputed rating
func NewTitleResponse(t *TitleModel, rating *float64) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      rating,
		Description: t.Description,
		Genre:       make([]TermResponse, len(t.Genres)),
	}
	for i, g := range t.Genres {
		resp.Genre[i] = TermResponse{Name: g.Name, Slug: g.Slug}
	}
	if t.Category != nil {
		resp.Category = &TermResponse{Name: t.Category.Name, Slug: t.Category.Slug}
	}
	return resp
}
