package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type AgentHandler struct {
	agentService service.AgentService
}

func NewAgentHandler(agentService service.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

func (h *AgentHandler) RegisterRoutes(router *gin.RouterGroup) {
	agents := router.Group("/api/agents")
	{
		agents.GET("", middleware.RequireAuth(), h.ListAgents)
		agents.POST("", middleware.RequireRole(model.RoleAdmin), h.CreateAgent)
		agents.PUT("/:id", middleware.RequireRole(model.RoleAdmin), h.UpdateAgent)
		agents.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteAgent)
	}
}

// ListAgents returns paginated sales agents
// @Summary      List agents
// @Tags         agents
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default: 1)"
// @Param        limit  query  int  false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/agents [get]
func (h *AgentHandler) ListAgents(c *gin.Context) {
	p := pagination.Parse(c)

	agents, total, err := h.agentService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, agents, p, total))
}

// CreateAgent registers a new sales agent
// @Summary      Create agent
// @Tags         agents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateAgentRequest  true  "Agent payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/agents [post]
func (h *AgentHandler) CreateAgent(c *gin.Context) {
	var req service.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	agent, err := h.agentService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, agent))
}

// UpdateAgent updates an existing agent
// @Summary      Update agent
// @Tags         agents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                      true  "Agent ID"
// @Param        payload  body  service.CreateAgentRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/agents/{id} [put]
func (h *AgentHandler) UpdateAgent(c *gin.Context) {
	var req service.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	agent, err := h.agentService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, agent))
}

// DeleteAgent deletes an agent (soft delete)
// @Summary      Delete agent
// @Tags         agents
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Agent ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/agents/{id} [delete]
func (h *AgentHandler) DeleteAgent(c *gin.Context) {
	if err := h.agentService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Agent deleted successfully"}))
}
