package assets

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/pkg/models"
)

// AssignedHandler answers the public lookup of assets held by a person.
type AssignedHandler struct {
	repository Repository
	logger     *zap.Logger
}

func NewAssignedHandler(r Repository, logger *zap.Logger) *AssignedHandler {
	return &AssignedHandler{repository: r, logger: logger}
}

func (h *AssignedHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/assets/assigned", h.GetAssigned)
}

func (h *AssignedHandler) GetAssigned(c *gin.Context) {
	name := strings.TrimSpace(c.Query("user"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter user is required"})
		return
	}

	assets, err := h.repository.AssignedTo(c.Request.Context(), name)
	if err != nil {
		h.logger.Error("Could not look up assigned assets", zap.String("user", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to look up assets"})
		return
	}
	if assets == nil {
		assets = []models.AssignedAsset{}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   name,
		"count":  len(assets),
		"assets": assets,
	})
}
