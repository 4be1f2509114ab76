package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ksugimori/docscan/internal/common"
)

type conditionRequest struct {
	Name  string   `json:"name" binding:"required"`
	Items []string `json:"items" binding:"required"`
}

func (s *Server) listConditions(c *gin.Context) {
	conds, err := s.conditions.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conds)
}

func (s *Server) createCondition(c *gin.Context) {
	var req conditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ValidationErrorf("name and items are required"))
		return
	}
	cond, err := s.conditions.Create(c.Request.Context(), req.Name, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cond)
}

func (s *Server) updateCondition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req conditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ValidationErrorf("name and items are required"))
		return
	}
	cond, err := s.conditions.Update(c.Request.Context(), id, req.Name, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cond)
}

func (s *Server) deleteCondition(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.conditions.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
