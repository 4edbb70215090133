package mapview

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"nsv-dashboard/models"
)

// PointQR encodes the point's Google Maps link as a QR PNG for the share
// button on the point popup. Points without usable coordinates have
// nothing to share.
func PointQR(p *models.SurveyPoint, size int) ([]byte, error) {
	if !p.ValidCoordinates() {
		return nil, fmt.Errorf("point has no valid coordinates")
	}
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(p.MapsLink(), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR: %w", err)
	}
	return png, nil
}
