package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blacktwitter/blacktwitter/internal/model"
	"github.com/blacktwitter/blacktwitter/internal/queue"
	"github.com/blacktwitter/blacktwitter/internal/repository"
)

const maxPostLen = 280

// hashtagPattern matches #word tags inside post content.
var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// extractHashtags returns the deduplicated, lowercased tags in content.
func extractHashtags(content string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var tags []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; !ok {
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// PostHandler bundles the repositories behind the posting endpoints.
// Notify publishes interaction events; it is a field so tests can capture
// events instead of dialing a broker.
type PostHandler struct {
	Posts    *repository.PostRepo
	Comments *repository.CommentRepo
	Likes    *repository.LikeRepo
	Hashtags *repository.HashtagRepo
	Notify   func(c echo.Context, ev queue.NotificationEvent)
}

func NewPostHandler(posts *repository.PostRepo, comments *repository.CommentRepo, likes *repository.LikeRepo, hashtags *repository.HashtagRepo, notify func(c echo.Context, ev queue.NotificationEvent)) *PostHandler {
	if posts == nil || comments == nil || likes == nil || hashtags == nil {
		panic("nil repository passed to NewPostHandler")
	}
	if notify == nil {
		notify = func(echo.Context, queue.NotificationEvent) {}
	}
	return &PostHandler{Posts: posts, Comments: comments, Likes: likes, Hashtags: hashtags, Notify: notify}
}

type postReq struct {
	Content string `json:"content"`
}

type postResp struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	Hashtags  []string  `json:"hashtags,omitempty"`
}

func toPostResp(p model.Post) postResp {
	return postResp{
		ID: p.ID, UserID: p.UserID, Username: p.Username,
		Content: p.Content, CreatedAt: p.CreatedAt,
		Likes: p.Likes, Comments: p.Comments,
	}
}

func toPostResps(ps []model.Post) []postResp {
	out := make([]postResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPostResp(p))
	}
	return out
}

// Create handles POST /v1/posts.  The post row and its hashtag links are
// committed in one transaction.
func (h *PostHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req postReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	if len(content) > maxPostLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content too long"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tx, err := h.Posts.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	postID, err := h.Posts.CreateTx(ctx, tx, userID, content)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create post failed"})
	}
	if tags := extractHashtags(content); len(tags) > 0 {
		if err := h.Hashtags.LinkTx(ctx, tx, postID, tags); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link hashtags failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create post failed"})
	}
	committed = true

	p, err := h.Posts.GetByID(ctx, postID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load post failed"})
	}
	resp := toPostResp(p)
	resp.Hashtags = extractHashtags(content)
	return c.JSON(http.StatusCreated, resp)
}

// Get handles GET /v1/posts/:id with comments and liked-by usernames.
func (h *PostHandler) Get(c echo.Context) error {
	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || postID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	comments, err := h.Comments.ListByPost(ctx, postID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	likedBy, err := h.Likes.LikedBy(ctx, postID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"post":     toPostResp(p),
		"comments": toCommentResps(comments),
		"liked_by": likedBy,
	})
}

// List handles GET /v1/posts: the global newest-first timeline.
func (h *PostHandler) List(c echo.Context) error {
	limit, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	posts, err := h.Posts.ListRecent(ctx, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": toPostResps(posts)})
}

// Feed handles GET /v1/feed: own posts plus followed users' posts.
func (h *PostHandler) Feed(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	posts, err := h.Posts.ListFeed(ctx, userID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": toPostResps(posts)})
}

// Delete handles DELETE /v1/posts/:id for the post's owner.
func (h *PostHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || postID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Posts.Delete(ctx, postID, userID); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

type commentReq struct {
	Content string `json:"content"`
}

type commentResp struct {
	ID        uint64    `json:"id"`
	PostID    uint64    `json:"post_id"`
	UserID    uint64    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toCommentResps(cs []model.Comment) []commentResp {
	out := make([]commentResp, 0, len(cs))
	for _, cm := range cs {
		out = append(out, commentResp{
			ID: cm.ID, PostID: cm.PostID, UserID: cm.UserID,
			Username: cm.Username, Content: cm.Content, CreatedAt: cm.CreatedAt,
		})
	}
	return out
}

// Comment handles POST /v1/posts/:id/comments and notifies the author.
func (h *PostHandler) Comment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || postID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	content := strings.TrimSpace(req.Content)
	if content == "" || len(content) > maxPostLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	id, err := h.Comments.Create(ctx, postID, userID, content)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create comment failed"})
	}

	pid := postID
	h.Notify(c, queue.NotificationEvent{
		RecipientID: p.UserID,
		SenderID:    userID,
		Kind:        model.NotificationComment,
		PostID:      &pid,
	})
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// DeleteComment handles DELETE /v1/comments/:id for the comment's owner.
func (h *PostHandler) DeleteComment(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || commentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Comments.Delete(ctx, commentID, userID); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

// Like handles POST /v1/posts/:id/like; repeats are no-ops.
func (h *PostHandler) Like(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || postID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	created, err := h.Likes.Like(ctx, userID, postID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "like failed"})
	}
	if created {
		pid := postID
		h.Notify(c, queue.NotificationEvent{
			RecipientID: p.UserID,
			SenderID:    userID,
			Kind:        model.NotificationLike,
			PostID:      &pid,
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// Unlike handles DELETE /v1/posts/:id/like.
func (h *PostHandler) Unlike(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || postID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Likes.Unlike(ctx, userID, postID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unlike failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
