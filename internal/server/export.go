package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/export"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// exportList streams the pivoted table as a download named after the
// list. ?format=csv|xlsx overrides the configured default.
func (s *Server) exportList(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	list, err := s.lists.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	formatStr := c.DefaultQuery("format", s.cfg.Export.Format)
	format, err := export.ParseFormat(formatStr)
	if err != nil {
		respondError(c, common.ValidationErrorf("%v", err))
		return
	}

	table, err := s.exporter.Project(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := s.exporter.Serialize(table, format)
	if err != nil {
		respondError(c, err)
		return
	}

	contentType := csvContentType
	if format == export.FormatXLSX {
		contentType = xlsxContentType
	}
	filename := strings.ReplaceAll(list.Name, " ", "_") + "." + format.Ext()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
