package feasibility

import (
	"errors"
	"net/http"
	"strings"

	"github.com/abduss/clinstudy/internal/auth"
	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts feasibility endpoints. The router must already authenticate requests.
func RegisterRoutes(router gin.IRouter, service *Service) {
	handler := &httpHandler{service: service}

	group := router.Group("/feasibilities")
	{
		group.POST("", handler.create)
		group.GET("", handler.list)
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
		writeError(c, err, "failed to create feasibility")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) list(c *gin.Context) {
	page, ok := httpx.ParsePage(c)
	if !ok {
		return
	}
	studyID, ok := httpx.ParseOptionalUUIDQuery(c, "study_id")
	if !ok {
		return
	}

	out, err := h.service.List(c.Request.Context(), Filter{
		StudyID: studyID,
		Status:  Status(c.Query("status")),
		Sponsor: strings.TrimSpace(c.Query("sponsor")),
	}, page)
	if err != nil {
		httpx.InternalError(c, err, "failed to list feasibilities")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *httpHandler) get(c *gin.Context) {
	id, ok := httpx.ParseID(c, "id")
	if !ok {
		return
	}

	f, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch feasibility")
		return
	}
	c.JSON(http.StatusOK, f)
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
		writeError(c, err, "failed to update feasibility")
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
		writeError(c, err, "failed to delete feasibility")
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(c, http.StatusNotFound, "feasibility not found")
	case errors.Is(err, ErrStudyNotFound):
		httpx.Error(c, http.StatusUnprocessableEntity, "study does not exist")
	case errors.Is(err, ErrInvalidTransition):
		httpx.Error(c, http.StatusConflict, err.Error())
	case httpx.IsValidation(err):
		httpx.RespondValidation(c, err)
	default:
		httpx.InternalError(c, err, message)
	}
}
