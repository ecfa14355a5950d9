package api

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/audiohal/internal/api/models"
	"github.com/smazurov/audiohal/pkg/coreaudio"
)

// DevicePathInput selects a device by audio object ID.
type DevicePathInput struct {
	DeviceID uint32 `path:"device_id" example:"57" doc:"Audio object ID"`
}

// SampleRateInput combines path parameters and request body.
type SampleRateInput struct {
	DevicePathInput
	Body models.SampleRateRequest
}

// FormatInput combines path parameters and request body.
type FormatInput struct {
	DevicePathInput
	Body models.FormatRequest
}

func toAPIFormat(f coreaudio.StreamFormat) models.Format {
	af := f.AudioFormat()
	return models.Format{
		SampleRate:     f.SampleRate,
		NominalHz:      af.SampleRate,
		FormatID:       f.FormatID.String(),
		Channels:       uint32(af.NumChannels),
		BitsPerChannel: f.BitsPerChannel,
		Float:          f.FormatFlags&coreaudio.FlagIsFloat != 0,
		BytesPerFrame:  f.BytesPerFrame,
	}
}

// lookupDevice returns the summary of a present device or a 404.
func (s *Server) lookupDevice(id uint32) (models.DeviceSummary, error) {
	infos, err := s.sys.Devices()
	if err != nil {
		return models.DeviceSummary{}, huma.Error500InternalServerError("Failed to list devices", err)
	}
	i := slices.IndexFunc(infos, func(d coreaudio.DeviceInfo) bool { return uint32(d.ID) == id })
	if i < 0 {
		return models.DeviceSummary{}, huma.Error404NotFound("Device not found")
	}
	return s.summarize(infos[i]), nil
}

func (s *Server) summarize(info coreaudio.DeviceInfo) models.DeviceSummary {
	summary := models.DeviceSummary{
		ID:            uint32(info.ID),
		Name:          info.Name,
		DefaultInput:  info.IsDefaultInput,
		DefaultOutput: info.IsDefaultOutput,
	}
	if rate, err := s.sys.NominalSampleRate(info.ID); err == nil {
		summary.SampleRate = rate
	}
	return summary
}

// reconfigureError maps a failed reconfiguration to an HTTP status.
func reconfigureError(err error) error {
	switch {
	case errors.Is(err, coreaudio.ErrNotConverged):
		return huma.Error504GatewayTimeout("Device did not confirm the change", err)
	case errors.Is(err, coreaudio.ErrUnsupportedSampleRate), errors.Is(err, coreaudio.ErrUnsupportedFormat):
		return huma.Error422UnprocessableEntity("Device does not support the requested configuration", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("Request canceled", err)
	default:
		return huma.Error500InternalServerError("Failed to reconfigure device", err)
	}
}

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "List audio devices with their current sample rate and default roles",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, _ *struct{}) (*models.DevicesResponse, error) {
		infos, err := s.sys.Devices()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list devices", err)
		}
		devices := make([]models.DeviceSummary, 0, len(infos))
		for _, info := range infos {
			devices = append(devices, s.summarize(info))
		}
		return &models.DevicesResponse{
			Body: models.DevicesData{Devices: devices, Count: len(devices)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-device",
		Method:      http.MethodGet,
		Path:        "/api/devices/{device_id}",
		Summary:     "Get Device",
		Description: "Get the available sample rates and physical formats of a device",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(_ context.Context, input *DevicePathInput) (*models.DeviceResponse, error) {
		summary, err := s.lookupDevice(input.DeviceID)
		if err != nil {
			return nil, err
		}
		id := coreaudio.DeviceID(input.DeviceID)
		data := models.DeviceData{
			DeviceSummary:    summary,
			AvailableRates:   []models.RateRange{},
			SupportedFormats: []models.Format{},
		}

		if ranges, rangeErr := s.sys.AvailableSampleRates(id); rangeErr == nil {
			for _, r := range ranges {
				data.AvailableRates = append(data.AvailableRates, models.RateRange{Minimum: r.Minimum, Maximum: r.Maximum})
			}
		}
		if current, formatErr := s.sys.PhysicalFormat(id); formatErr == nil {
			f := toAPIFormat(current)
			data.Format = &f
		}
		if formats, formatsErr := s.sys.SupportedPhysicalFormats(id); formatsErr == nil {
			for _, f := range formats {
				data.SupportedFormats = append(data.SupportedFormats, toAPIFormat(f))
			}
		}
		return &models.DeviceResponse{Body: data}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-sample-rate",
		Method:      http.MethodPut,
		Path:        "/api/devices/{device_id}/sample-rate",
		Summary:     "Set Sample Rate",
		Description: "Request a new nominal sample rate and wait until the device confirms it",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 422, 500, 503, 504},
	}, func(ctx context.Context, input *SampleRateInput) (*models.ReconfigureResponse, error) {
		if _, err := s.lookupDevice(input.DeviceID); err != nil {
			return nil, err
		}
		id := coreaudio.DeviceID(input.DeviceID)
		if err := s.sys.SetSampleRate(ctx, id, input.Body.SampleRate); err != nil {
			return nil, reconfigureError(err)
		}
		rate, err := s.sys.NominalSampleRate(id)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to read sample rate", err)
		}
		return &models.ReconfigureResponse{
			Body: models.ReconfigureData{ID: input.DeviceID, SampleRate: rate},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-format",
		Method:      http.MethodPut,
		Path:        "/api/devices/{device_id}/format",
		Summary:     "Set Physical Format",
		Description: "Request a packed interleaved linear PCM physical format and wait until the device confirms it",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 422, 500, 503, 504},
	}, func(ctx context.Context, input *FormatInput) (*models.ReconfigureResponse, error) {
		if _, err := s.lookupDevice(input.DeviceID); err != nil {
			return nil, err
		}
		id := coreaudio.DeviceID(input.DeviceID)
		body := input.Body
		target := coreaudio.NewLinearPCMFormat(body.SampleRate, body.Channels, body.BitsPerChannel, body.Float)
		if err := s.sys.SetPhysicalFormat(ctx, id, target); err != nil {
			return nil, reconfigureError(err)
		}
		current, err := s.sys.PhysicalFormat(id)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to read format", err)
		}
		f := toAPIFormat(current)
		return &models.ReconfigureResponse{
			Body: models.ReconfigureData{ID: input.DeviceID, SampleRate: current.SampleRate, Format: &f},
		}, nil
	})
}
