package activity

import (
	"errors"
	"net/http"

	"github.com/abduss/clinstudy/internal/auth"
	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts activity endpoints. The router must already authenticate requests.
func RegisterRoutes(router gin.IRouter, service *Service) {
	handler := &httpHandler{service: service}

	group := router.Group("/activities")
	{
		group.POST("", handler.create)
		group.GET("", handler.list)
		group.GET("/mine", handler.mine)
		group.GET("/:id", handler.get)
		group.PATCH("/:id", handler.update)
		group.DELETE("/:id", auth.RequireRoles(auth.RoleAdmin), handler.delete)
	}
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) create(c *gin.Context) {
	var in CreateInput
	if !httpx.BindJSON(c, &in) {
		return
	}

	created, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, "failed to create activity")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) list(c *gin.Context) {
	studyID, ok := httpx.ParseOptionalUUIDQuery(c, "study_id")
	if !ok {
		return
	}
	assigneeID, ok := httpx.ParseOptionalUUIDQuery(c, "assignee_id")
	if !ok {
		return
	}
	h.respondList(c, Filter{StudyID: studyID, AssigneeID: assigneeID, Status: Status(c.Query("status"))})
}

// mine lists the caller's own assignments.
func (h *httpHandler) mine(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.respondList(c, Filter{AssigneeID: &userID, Status: Status(c.Query("status"))})
}

func (h *httpHandler) respondList(c *gin.Context, filter Filter) {
	page, ok := httpx.ParsePage(c)
	if !ok {
		return
	}

	activities, err := h.service.List(c.Request.Context(), filter, page)
	if err != nil {
		httpx.InternalError(c, err, "failed to list activities")
		return
	}
	c.JSON(http.StatusOK, activities)
}

func (h *httpHandler) get(c *gin.Context) {
	id, ok := httpx.ParseID(c, "id")
	if !ok {
		return
	}

	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch activity")
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *httpHandler) update(c *gin.Context) {
	id, ok := httpx.ParseID(c, "id")
	if !ok {
		return
	}

	var patch Patch
	if !httpx.BindJSON(c, &patch) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, err, "failed to update activity")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) delete(c *gin.Context) {
	id, ok := httpx.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "failed to delete activity")
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(c, http.StatusNotFound, "activity not found")
	case errors.Is(err, ErrInvalidReference):
		httpx.Error(c, http.StatusUnprocessableEntity, "study or assignee does not exist")
	case httpx.IsValidation(err):
		httpx.RespondValidation(c, err)
	default:
		httpx.InternalError(c, err, message)
	}
}
