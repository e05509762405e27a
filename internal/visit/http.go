package visit

import (
	"errors"
	"net/http"

	"github.com/abduss/clinstudy/internal/auth"
	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts visit endpoints. The router must already authenticate requests.
func RegisterRoutes(router gin.IRouter, service *Service) {
	handler := &httpHandler{service: service}

	group := router.Group("/visits")
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
		writeError(c, err, "failed to schedule visit")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) list(c *gin.Context) {
	page, ok := httpx.ParsePage(c)
	if !ok {
		return
	}
	patientID, ok := httpx.ParseOptionalUUIDQuery(c, "patient_id")
	if !ok {
		return
	}
	from, ok := httpx.ParseOptionalTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := httpx.ParseOptionalTimeQuery(c, "to")
	if !ok {
		return
	}

	visits, err := h.service.List(c.Request.Context(), Filter{
		PatientID: patientID,
		Status:    Status(c.Query("status")),
		From:      from,
		To:        to,
	}, page)
	if err != nil {
		httpx.InternalError(c, err, "failed to list visits")
		return
	}
	c.JSON(http.StatusOK, visits)
}

func (h *httpHandler) get(c *gin.Context) {
	id, ok := httpx.ParseID(c, "id")
	if !ok {
		return
	}

	v, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch visit")
		return
	}
	c.JSON(http.StatusOK, v)
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
		writeError(c, err, "failed to update visit")
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
		writeError(c, err, "failed to delete visit")
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(c, http.StatusNotFound, "visit not found")
	case errors.Is(err, ErrPatientNotFound):
		httpx.Error(c, http.StatusUnprocessableEntity, "patient does not exist")
	case httpx.IsValidation(err):
		httpx.RespondValidation(c, err)
	default:
		httpx.InternalError(c, err, message)
	}
}
