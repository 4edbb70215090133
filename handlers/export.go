package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nsv-dashboard/exporter"
)

// ExportRequest selects the columns for a view export
type ExportRequest struct {
	Columns []string `json:"columns"`
}

type exportColumn struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// GetExportColumns handles GET /api/v1/export/columns and lists the
// selectable columns for the export dialog.
func (h *Handlers) GetExportColumns(c *gin.Context) {
	cols := exporter.Columns()
	out := make([]exportColumn, len(cols))
	for i, col := range cols {
		out[i] = exportColumn{Key: col.Key, Header: col.Header}
	}
	c.JSON(http.StatusOK, gin.H{"columns": out})
}

// ExportView handles POST /api/v1/export and streams the currently
// filtered list as a CSV download.
func (h *Handlers) ExportView(c *gin.Context) {
	var req ExportRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	export, err := h.svc.ExportView(req.Columns)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(export.Content))
}

// ExportServer handles GET /api/v1/export/server and relays the
// backend-rendered CSV of the full dataset.
func (h *Handlers) ExportServer(c *gin.Context) {
	resp, err := h.svc.ExportServer(c.Request.Context())
	if err != nil {
		relayError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+resp.Filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(resp.CSVContent))
}
