package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/blacktwitter/blacktwitter/internal/model"
	"github.com/blacktwitter/blacktwitter/internal/repository"
)

type hashtagResp struct {
	ID  uint64 `json:"id"`
	Tag string `json:"tag"`
}

type trendingResp struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

func toHashtagResps(hs []model.Hashtag) []hashtagResp {
	out := make([]hashtagResp, 0, len(hs))
	for _, h := range hs {
		out = append(out, hashtagResp{ID: h.ID, Tag: h.Tag})
	}
	return out
}

func toTrendingResps(ts []repository.TrendingTag) []trendingResp {
	out := make([]trendingResp, 0, len(ts))
	for _, t := range ts {
		out = append(out, trendingResp{Tag: t.Tag, Count: t.Count})
	}
	return out
}

// SearchHandler serves post/user/hashtag search and trending tags.
type SearchHandler struct {
	Posts    *repository.PostRepo
	Users    *repository.UserRepo
	Hashtags *repository.HashtagRepo
}

func NewSearchHandler(posts *repository.PostRepo, users *repository.UserRepo, hashtags *repository.HashtagRepo) *SearchHandler {
	if posts == nil || users == nil || hashtags == nil {
		panic("nil repository passed to NewSearchHandler")
	}
	return &SearchHandler{Posts: posts, Users: users, Hashtags: hashtags}
}

// Search handles GET /v1/search?q=.  A leading # searches hashtags,
// a leading @ searches users, anything else searches post content.
func (h *SearchHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query required"})
	}
	limit, _ := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch {
	case strings.HasPrefix(q, "#"):
		tags, err := h.Hashtags.Search(ctx, strings.ToLower(strings.TrimPrefix(q, "#")), limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return c.JSON(http.StatusOK, echo.Map{"hashtags": toHashtagResps(tags)})
	case strings.HasPrefix(q, "@"):
		users, err := h.Users.SearchUsers(ctx, strings.TrimPrefix(q, "@"), limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return c.JSON(http.StatusOK, echo.Map{"users": toUserSummaries(users)})
	default:
		posts, err := h.Posts.SearchContent(ctx, q, limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return c.JSON(http.StatusOK, echo.Map{"posts": toPostResps(posts)})
	}
}

// ByTag handles GET /v1/hashtags/:tag: posts carrying the tag.
func (h *SearchHandler) ByTag(c echo.Context) error {
	tag := strings.ToLower(strings.TrimSpace(c.Param("tag")))
	if tag == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tag required"})
	}
	limit, _ := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	posts, err := h.Hashtags.PostsByTag(ctx, tag, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tag": tag, "posts": toPostResps(posts)})
}

// Trending handles GET /v1/hashtags/trending: the tags most used in the
// last 24 hours.
func (h *SearchHandler) Trending(c echo.Context) error {
	limit, _ := pageParams(c)
	if limit > 10 {
		limit = 10
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tags, err := h.Hashtags.Trending(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"trending": toTrendingResps(tags)})
}
