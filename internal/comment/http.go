package comment

import (
	"errors"
	"net/http"

	"github.com/abduss/clinstudy/internal/auth"
	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts comment endpoints. The router must already authenticate requests.
func RegisterRoutes(router gin.IRouter, service *Service) {
	handler := &httpHandler{service: service}

	group := router.Group("/comments")
	{
		group.POST("", handler.create)
		group.GET("", handler.list)
		group.GET("/:id", handler.get)
		group.PATCH("/:id", handler.update)
		group.DELETE("/:id", handler.delete)
	}
}

type httpHandler struct {
	service *Service
}

func actorFrom(c *gin.Context) (Actor, bool) {
	id, user, ok := auth.RequireUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, "unauthorized")
		return Actor{}, false
	}
	return Actor{ID: id, Admin: user.IsAdmin()}, true
}

func (h *httpHandler) create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var in CreateInput
	if !httpx.BindJSON(c, &in) {
		return
	}

	created, err := h.service.Create(c.Request.Context(), actor.ID, in)
	if err != nil {
		writeError(c, err, "failed to create comment")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) list(c *gin.Context) {
	page, ok := httpx.ParsePage(c)
	if !ok {
		return
	}
	entityID, ok := httpx.ParseOptionalUUIDQuery(c, "entity_id")
	if !ok {
		return
	}
	authorID, ok := httpx.ParseOptionalUUIDQuery(c, "author_id")
	if !ok {
		return
	}

	out, err := h.service.List(c.Request.Context(), Filter{
		EntityType: EntityType(c.Query("entity_type")),
		EntityID:   entityID,
		AuthorID:   authorID,
	}, page)
	if err != nil {
		httpx.InternalError(c, err, "failed to list comments")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *httpHandler) get(c *gin.Context) {
	id, ok := httpx.ParseID(c, "id")
	if !ok {
		return
	}

	comment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch comment")
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *httpHandler) update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := httpx.ParseID(c, "id")
	if !ok {
		return
	}

	var patch Patch
	if !httpx.BindJSON(c, &patch) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), actor, id, patch)
	if err != nil {
		writeError(c, err, "failed to update comment")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := httpx.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err, "failed to delete comment")
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(c, http.StatusNotFound, "comment not found")
	case errors.Is(err, ErrForbidden):
		httpx.Error(c, http.StatusForbidden, err.Error())
	case httpx.IsValidation(err):
		httpx.RespondValidation(c, err)
	default:
		httpx.InternalError(c, err, message)
	}
}
