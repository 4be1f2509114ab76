package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ksugimori/docscan/internal/common"
)

type listRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) listLists(c *gin.Context) {
	lists, err := s.lists.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (s *Server) createList(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ValidationErrorf("name is required"))
		return
	}
	list, err := s.lists.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (s *Server) renameList(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ValidationErrorf("name is required"))
		return
	}
	list, err := s.lists.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// deleteList removes the list's upload directory together with its rows;
// a directory removal failure aborts the whole delete.
func (s *Server) deleteList(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	err := s.lists.Delete(c.Request.Context(), id, s.files.RemoveListDir)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
