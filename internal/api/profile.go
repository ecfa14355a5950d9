package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/audiohal/internal/api/models"
	"github.com/smazurov/audiohal/internal/pinning"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/api/profile",
		Summary:     "Get Profile",
		Description: "Get the device profile the daemon enforces",
		Tags:        []string{"profile"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.ProfileResponse, error) {
		profile := s.enforcer.Profile()
		devices := make([]models.ProfileDevice, 0, len(profile.Devices))
		for _, d := range profile.Devices {
			device := models.ProfileDevice{Name: d.Name, ID: d.ID, SampleRate: d.SampleRate}
			if d.Format != nil {
				device.Channels = d.Format.Channels
				device.BitsPerChannel = d.Format.BitsPerChannel
				device.Float = d.Format.Float
			}
			devices = append(devices, device)
		}
		return &models.ProfileResponse{Body: models.ProfileData{Devices: devices}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "apply-profile",
		Method:      http.MethodPost,
		Path:        "/api/profile/apply",
		Summary:     "Apply Profile",
		Description: "Bring every profile device to its pinned configuration now. Devices that fail are listed, not fatal.",
		Tags:        []string{"profile"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.ApplyResponse, error) {
		result, err := s.enforcer.Apply(ctx, pinning.TriggerManual)
		if err != nil {
			s.logger.Warn("Profile apply incomplete", "error", err)
		}
		failed := result.Failed
		if failed == nil {
			failed = []string{}
		}
		return &models.ApplyResponse{
			Body: models.ApplyData{Devices: result.Devices, Changed: result.Changed, Failed: failed},
		}, nil
	})
}
