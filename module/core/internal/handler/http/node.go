package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MedRayenZoubli/TruckTrack/module/core/domain"
)

type nodeService interface {
	ListNodes(ctx context.Context) []domain.ReferenceNode
	GetNode(ctx context.Context, id string) (*domain.ReferenceNode, error)
	NodesInfo(ctx context.Context) domain.NodesInfo
}

type NodeHandler struct {
	nodeSvc nodeService
}

func NewNodeHandler(nodeSvc nodeService) *NodeHandler {
	return &NodeHandler{nodeSvc: nodeSvc}
}

func (h *NodeHandler) Register(r *gin.RouterGroup) {
	r.GET("/nodes", h.GetAllNodes)
	r.GET("/nodes/info", h.GetNodesInfo)
	r.GET("/nodes/:node_id", h.GetNode)
}

func (h *NodeHandler) GetAllNodes(c *gin.Context) {
	c.JSON(http.StatusOK, h.nodeSvc.ListNodes(c.Request.Context()))
}

func (h *NodeHandler) GetNode(c *gin.Context) {
	n, err := h.nodeSvc.GetNode(c.Request.Context(), c.Param("node_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NodeHandler) GetNodesInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.nodeSvc.NodesInfo(c.Request.Context()))
}
