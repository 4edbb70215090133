package metrics

import "testing"

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data", "/data"},
		{"/data/filter?severity=High", "/data/filter"},
		{"/videos/vid-123", "/videos/{id}"},
		{"/videos/vid-123/mappings", "/videos/{id}/mappings"},
		{"/survey-point/42/video-timestamp", "/survey-point/{id}/video-timestamp"},
		{"/sync-video-data?video_id=vid-9", "/sync-video-data"},
		{"/upload-video", "/upload-video"},
	}

	for _, tt := range tests {
		if got := EndpointLabel(tt.path); got != tt.want {
			t.Errorf("EndpointLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register() // must not panic on double registration
}
