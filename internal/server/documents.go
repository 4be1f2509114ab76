package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ksugimori/docscan/constants"
	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/entity"
	"github.com/ksugimori/docscan/internal/filestore"
)

func (s *Server) listDocuments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := s.lists.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	docs, err := s.documents.ListByList(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

type uploadedDocument struct {
	Document *entity.Document `json:"document"`
	Warning  string           `json:"warning,omitempty"`
}

// uploadDocuments accepts multipart "files" parts, copies each into the
// list's directory under a generated name, and records it.
func (s *Server) uploadDocuments(c *gin.Context) {
	listID, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := s.lists.Get(c.Request.Context(), listID); err != nil {
		respondError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, common.ValidationErrorf("multipart form required"))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		respondError(c, common.ValidationErrorf("no files provided"))
		return
	}

	tmpDir := os.TempDir()
	out := make([]uploadedDocument, 0, len(files))
	for _, fh := range files {
		if !constants.AllowedExt(filepath.Ext(fh.Filename)) {
			respondError(c, common.ValidationErrorf("unsupported file extension on %q", fh.Filename))
			return
		}
		tmp := filepath.Join(tmpDir, uuid.New().String())
		if err := c.SaveUploadedFile(fh, tmp); err != nil {
			respondError(c, common.WrapError(err, "receive upload"))
			return
		}

		rel, kind, err := s.files.SaveUpload(listID, tmp, fh.Filename)
		_ = os.Remove(tmp)
		if err != nil {
			respondError(c, err)
			return
		}

		doc, err := s.documents.Create(c.Request.Context(), listID, fh.Filename, rel, kind)
		if err != nil {
			// Keep the stores consistent: undo the copy.
			_ = s.files.Remove(rel)
			respondError(c, err)
			return
		}

		entry := uploadedDocument{Document: doc}
		if kind == constants.KindPDF {
			entry.Warning = pdfWarning(s.files, doc)
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusCreated, out)
}

// pdfWarning inspects the stored PDF so the user learns before scanning
// that it must be converted to images first.
func pdfWarning(files *filestore.Store, doc *entity.Document) string {
	abs, err := files.Resolve(doc.StoragePath)
	if err != nil {
		return "PDF uploaded; convert pages to images before scanning"
	}
	pages, err := filestore.PDFPageCount(abs)
	if err != nil {
		return "PDF uploaded; convert pages to images before scanning"
	}
	return fmt.Sprintf("PDF with %d page(s); convert pages to images before scanning", pages)
}

type deleteDocumentsRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

// deleteDocuments removes documents and their physical files. A file
// removal failure rolls back the whole batch.
func (s *Server) deleteDocuments(c *gin.Context) {
	var req deleteDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		respondError(c, common.ValidationErrorf("ids are required"))
		return
	}
	deleted, err := s.documents.DeleteBatch(c.Request.Context(), req.IDs, s.files.Remove)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

type resultGroup struct {
	ConditionID   uint                       `json:"condition_id"`
	ConditionName string                     `json:"condition_name"`
	Results       []*entity.ExtractionResult `json:"results"`
}

// documentResults renders a document's extraction results grouped by the
// condition that produced them.
func (s *Server) documentResults(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	doc, err := s.documents.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := s.results.ListByDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	seen := make(map[uint]struct{})
	var condIDs []uint
	for _, r := range rows {
		if _, ok := seen[r.ConditionID]; !ok {
			seen[r.ConditionID] = struct{}{}
			condIDs = append(condIDs, r.ConditionID)
		}
	}
	names, err := s.conditions.NamesByIDs(c.Request.Context(), condIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	var groups []resultGroup
	for _, r := range rows {
		if len(groups) == 0 || groups[len(groups)-1].ConditionID != r.ConditionID {
			name, ok := names[r.ConditionID]
			if !ok {
				name = "(deleted condition)"
			}
			groups = append(groups, resultGroup{ConditionID: r.ConditionID, ConditionName: name})
		}
		groups[len(groups)-1].Results = append(groups[len(groups)-1].Results, r)
	}

	c.JSON(http.StatusOK, gin.H{
		"document": doc,
		"groups":   groups,
	})
}
