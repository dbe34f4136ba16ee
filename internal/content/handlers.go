package content

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func postIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid post id"})
		return 0, false
	}
	return id, true
}

// writeError maps service errors onto the HTTP surface.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "post not found"})
	case errors.Is(err, ErrNotPostOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not the post owner"})
	case errors.Is(err, ErrInvalidRating):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "rating must be between 1 and 5"})
	case errors.Is(err, ErrEmptyComment):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "comment text must not be empty"})
	default:
		slog.Error("content request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// POST /posts
func (h *Handler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}
	post, err := h.svc.CreatePost(c.Request.Context(), callerID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GET /posts?category=...&sort=top-rated
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.svc.ListPosts(c.Request.Context(), c.Query("category"), c.Query("sort"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GET /posts/trending
func (h *Handler) TrendingPosts(c *gin.Context) {
	posts, err := h.svc.TrendingPosts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GET /posts/top-rated?category=...
func (h *Handler) TopRatedByCategory(c *gin.Context) {
	posts, err := h.svc.TopRatedByCategory(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GET /posts/search?query=...
func (h *Handler) SearchPosts(c *gin.Context) {
	posts, err := h.svc.SearchPosts(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GET /posts/:id
func (h *Handler) GetPost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	post, err := h.svc.GetPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// PUT /posts/:id
func (h *Handler) UpdatePost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}
	post, err := h.svc.UpdatePost(c.Request.Context(), postID, callerID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DELETE /posts/:id
func (h *Handler) DeletePost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), postID, callerID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// POST /posts/:id/like
func (h *Handler) ToggleLike(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	res, err := h.svc.ToggleLike(c.Request.Context(), postID, callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /posts/:id/likes
func (h *Handler) LikesCount(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	count, err := h.svc.LikesCount(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{PostID: postID, Count: count})
}

// GET /posts/:id/liked
func (h *Handler) HasLiked(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	liked, err := h.svc.HasLiked(c.Request.Context(), postID, callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, LikedResponse{PostID: postID, Liked: liked})
}

// POST /posts/:id/rate  {ratingValue}
func (h *Handler) RatePost(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}
	if err := h.svc.RatePost(c.Request.Context(), postID, callerID(c), req.RatingValue); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rating saved"})
}

// GET /posts/:id/rating
func (h *Handler) AverageRating(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	avg, err := h.svc.AverageRating(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, RatingResponse{PostID: postID, RatingAvg: avg})
}

// GET /posts/:id/rating/user
func (h *Handler) UserRating(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	value, err := h.svc.UserRating(c.Request.Context(), postID, callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserRatingResponse{PostID: postID, RatingValue: value})
}

// POST /posts/:id/comment  {text}
func (h *Handler) AddComment(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}
	comment, err := h.svc.AddComment(c.Request.Context(), postID, callerID(c), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// GET /posts/:id/comments
func (h *Handler) ListComments(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	comments, err := h.svc.ListComments(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// GET /posts/:id/comments/count
func (h *Handler) CommentsCount(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	count, err := h.svc.CommentsCount(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{PostID: postID, Count: count})
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
