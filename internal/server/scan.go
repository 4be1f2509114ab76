package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ksugimori/docscan/internal/common"
)

type scanRequest struct {
	ConditionID uint `json:"condition_id"`
}

// scanDocument runs one extraction attempt. While a scan for the same
// (document, condition) pair is in flight the endpoint answers 409; the
// client keeps its trigger disabled rather than queueing.
func (s *Server) scanDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ValidationErrorf("condition_id is required"))
		return
	}

	outcome, err := s.scanner.Scan(c.Request.Context(), id, req.ConditionID)
	if err != nil {
		respondError(c, err)
		return
	}

	fields := make(map[string]string, len(outcome.Fields))
	for _, fv := range outcome.Fields {
		fields[fv.Name] = fv.Value
	}
	c.JSON(http.StatusOK, gin.H{
		"document_id":  outcome.DocumentID,
		"condition_id": outcome.ConditionID,
		"fields":       fields,
		"dropped":      outcome.Dropped,
		"scanned_at":   outcome.ScannedAt,
	})
}
