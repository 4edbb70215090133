package handlers

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"nsv-dashboard/models"
	"nsv-dashboard/nsvapi"
	"nsv-dashboard/service"
	ws "nsv-dashboard/websocket"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	svc *service.Service
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

// relayError maps a service error onto the gateway response: backend
// answers keep their status code, an unreachable backend becomes 502,
// local validation failures 400.
func relayError(c *gin.Context, err error) {
	var apiErr *nsvapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Unreachable() {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(apiErr.StatusCode, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// UploadSurvey handles POST /api/v1/data/upload
func (h *Handlers) UploadSurvey(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	uploads := make([]nsvapi.FileUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			log.Errorf("Failed to open uploaded file %s: %v", fh.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read upload"})
			return
		}
		defer f.Close()
		uploads = append(uploads, nsvapi.FileUpload{Name: fh.Filename, Reader: f})
	}

	resp, err := h.svc.UploadSurvey(c.Request.Context(), uploads)
	if err != nil {
		relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetData handles GET /api/v1/data and re-reads the backend dataset
func (h *Handlers) GetData(c *gin.Context) {
	resp, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FilterData handles GET /api/v1/data/filter
func (h *Handlers) FilterData(c *gin.Context) {
	q := nsvapi.FilterQuery{
		Severity:        c.Query("severity"),
		MeasurementType: c.Query("measurement_type"),
		Highway:         c.Query("highway"),
	}

	resp, err := h.svc.ApplyServerFilter(c.Request.Context(), q)
	if err != nil {
		relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ClearData handles DELETE /api/v1/data
func (h *Handlers) ClearData(c *gin.Context) {
	if err := h.svc.ClearData(c.Request.Context()); err != nil {
		relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All data cleared"})
}

// LoadSampleData handles POST /api/v1/data/sample
func (h *Handlers) LoadSampleData(c *gin.Context) {
	resp, err := h.svc.LoadSampleData(c.Request.Context())
	if err != nil {
		relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetStatistics handles GET /api/v1/data/statistics
func (h *Handlers) GetStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Statistics())
}

// GetList handles GET /api/v1/list and returns the rendered list state,
// used to seed dashboards that connect after the dataset was loaded.
func (h *Handlers) GetList(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListSnapshot())
}

// SetListFilterRequest is the payload for the list filter endpoint
type SetListFilterRequest struct {
	Filter string `json:"filter"`
}

// SetListFilter handles POST /api/v1/list/filter
func (h *Handlers) SetListFilter(c *gin.Context) {
	var req SetListFilterRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	filter, ok := models.ParseFilter(req.Filter)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown filter: " + req.Filter})
		return
	}

	h.svc.SetListFilter(filter)
	c.JSON(http.StatusOK, h.svc.ListSnapshot())
}

// LoadMore handles POST /api/v1/list/more. The batch itself arrives over
// the WebSocket after the load delay; repeated calls while a batch is
// pending are absorbed silently.
func (h *Handlers) LoadMore(c *gin.Context) {
	h.svc.LoadMore()
	c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
}

// GetListStats handles GET /api/v1/list/stats
func (h *Handlers) GetListStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListStats())
}

// HealthCheck returns the service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}

// BackendHealth relays the survey backend's health check
func (h *Handlers) BackendHealth(c *gin.Context) {
	status, err := h.svc.BackendHealth(c.Request.Context())
	if err != nil {
		relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// WebSocket upgrader
var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now
		// In production, you should implement proper origin checking
		return true
	},
}

// DashboardWS handles WebSocket connections from dashboard clients
func (h *Handlers) DashboardWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	client := ws.NewClient(h.svc.Hub(), conn)
	h.svc.Hub().Register <- client

	go client.WritePump()
	go client.ReadPump()

	log.Infof("Dashboard connected from %s", c.ClientIP())
}
