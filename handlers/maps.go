package handlers

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"nsv-dashboard/models"
)

// GetMapMarkers handles GET /api/v1/map/markers. With sw/ne bounds it
// aggregates only the visible points; without them, the whole filtered
// dataset.
func (h *Handlers) GetMapMarkers(c *gin.Context) {
	swLatStr, hasSWLat := c.GetQuery("sw_lat")
	swLngStr, hasSWLng := c.GetQuery("sw_lng")
	neLatStr, hasNELat := c.GetQuery("ne_lat")
	neLngStr, hasNELng := c.GetQuery("ne_lng")

	var vp models.ViewPort
	if hasSWLat && hasSWLng && hasNELat && hasNELng {
		var err error
		if vp.SWLat, err = strconv.ParseFloat(swLatStr, 64); err != nil {
			log.Errorf("Error in parsing sw_lat param: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sw_lat"})
			return
		}
		if vp.SWLng, err = strconv.ParseFloat(swLngStr, 64); err != nil {
			log.Errorf("Error in parsing sw_lng param: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sw_lng"})
			return
		}
		if vp.NELat, err = strconv.ParseFloat(neLatStr, 64); err != nil {
			log.Errorf("Error in parsing ne_lat param: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ne_lat"})
			return
		}
		if vp.NELng, err = strconv.ParseFloat(neLngStr, 64); err != nil {
			log.Errorf("Error in parsing ne_lng param: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ne_lng"})
			return
		}
	}

	markers := h.svc.MapMarkers(vp)
	c.JSON(http.StatusOK, gin.H{"markers": markers, "count": len(markers)})
}

// GetMapGeoJSON handles GET /api/v1/map/geojson
func (h *Handlers) GetMapGeoJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.MapGeoJSON())
}

// GetPointQR handles GET /api/v1/points/:id/qr and renders a QR code for
// the point's map link, for field crews navigating to a defect.
func (h *Handlers) GetPointQR(c *gin.Context) {
	pointID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid point id"})
		return
	}

	size := 256
	if s := c.Query("size"); s != "" {
		size, err = strconv.Atoi(s)
		if err != nil || size <= 0 || size > 2048 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
			return
		}
	}

	png, err := h.svc.PointQR(pointID, size)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
