package handlers

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// UploadVideo handles POST /api/v1/videos. Processing happens on the
// backend; the poller pushes status changes to dashboards as they occur.
func (h *Handlers) UploadVideo(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no video file uploaded"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		log.Errorf("Failed to open uploaded video %s: %v", fh.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read upload"})
		return
	}
	defer f.Close()

	resp, err := h.svc.UploadVideo(c.Request.Context(), fh.Filename, f)
	if err != nil {
		relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetVideoJob handles GET /api/v1/videos/current
func (h *Handlers) GetVideoJob(c *gin.Context) {
	job, ok := h.svc.VideoJob()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no video uploaded"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteVideo handles DELETE /api/v1/videos/:id
func (h *Handlers) DeleteVideo(c *gin.Context) {
	videoID := c.Param("id")
	if videoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing video id"})
		return
	}

	if err := h.svc.DeleteVideo(c.Request.Context(), videoID); err != nil {
		relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Video deleted"})
}

// SyncVideo handles POST /api/v1/videos/sync
func (h *Handlers) SyncVideo(c *gin.Context) {
	stats, err := h.svc.RunSync(c.Request.Context())
	if err != nil {
		relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetSyncState handles GET /api/v1/videos/sync
func (h *Handlers) GetSyncState(c *gin.Context) {
	mappings, stats, videoID := h.svc.SyncState()
	c.JSON(http.StatusOK, gin.H{
		"video_id": videoID,
		"stats":    stats,
		"mappings": mappings,
		"total":    len(mappings),
	})
}

// JumpRequest is the payload for the jump endpoint
type JumpRequest struct {
	Index int `json:"index"`
}

// JumpToPoint handles POST /api/v1/videos/jump
func (h *Handlers) JumpToPoint(c *gin.Context) {
	var req JumpRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ev, ok := h.svc.JumpTo(req.Index)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no mapped point at index " + strconv.Itoa(req.Index)})
		return
	}
	c.JSON(http.StatusOK, ev)
}

// NextPoint handles POST /api/v1/videos/next
func (h *Handlers) NextPoint(c *gin.Context) {
	ev, ok := h.svc.NextPoint()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no next point"})
		return
	}
	c.JSON(http.StatusOK, ev)
}

// PrevPoint handles POST /api/v1/videos/prev
func (h *Handlers) PrevPoint(c *gin.Context) {
	ev, ok := h.svc.PrevPoint()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no previous point"})
		return
	}
	c.JSON(http.StatusOK, ev)
}

// PointTimestamp handles GET /api/v1/points/:id/video-timestamp
func (h *Handlers) PointTimestamp(c *gin.Context) {
	pointID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid point id"})
		return
	}

	mapping, err := h.svc.PointTimestamp(c.Request.Context(), pointID)
	if err != nil {
		relayError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapping)
}
