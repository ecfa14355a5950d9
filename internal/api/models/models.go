// Package models holds the request and response bodies of the HTTP API.
package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Backend string `json:"backend" example:"coreaudio" doc:"HAL backend in use"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"a1b2c3d" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-15T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler"`
	Platform  string `json:"platform" example:"darwin/arm64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Device models
type DeviceSummary struct {
	ID            uint32  `json:"id" example:"57" doc:"Audio object ID"`
	Name          string  `json:"name" example:"Scarlett 2i2 USB" doc:"Device name"`
	SampleRate    float64 `json:"sample_rate,omitempty" example:"48000" doc:"Current nominal sample rate in Hz"`
	DefaultInput  bool    `json:"default_input" doc:"Device is the default input"`
	DefaultOutput bool    `json:"default_output" doc:"Device is the default output"`
}

type DevicesData struct {
	Devices []DeviceSummary `json:"devices" doc:"List of audio devices"`
	Count   int             `json:"count" example:"3" doc:"Number of devices"`
}

type DevicesResponse struct {
	Body DevicesData
}

// Format describes a physical stream format.
type Format struct {
	SampleRate     float64 `json:"sample_rate" example:"48000" doc:"Sample rate in Hz"`
	NominalHz      int     `json:"nominal_hz" example:"48000" doc:"Sample rate truncated to whole Hz, the value rates are compared by"`
	FormatID       string  `json:"format_id" example:"'lpcm'" doc:"Four-char encoding code"`
	Channels       uint32  `json:"channels" example:"2" doc:"Channels per frame"`
	BitsPerChannel uint32  `json:"bits_per_channel" example:"24" doc:"Bits per channel"`
	Float          bool    `json:"float" doc:"Samples are floating point"`
	BytesPerFrame  uint32  `json:"bytes_per_frame" example:"6" doc:"Bytes per frame"`
}

// RateRange is an inclusive range of nominal sample rates. Minimum equals
// Maximum for a discrete rate.
type RateRange struct {
	Minimum float64 `json:"minimum" example:"44100" doc:"Lowest rate in Hz"`
	Maximum float64 `json:"maximum" example:"44100" doc:"Highest rate in Hz"`
}

type DeviceData struct {
	DeviceSummary
	AvailableRates   []RateRange `json:"available_rates" doc:"Supported nominal sample rates"`
	Format           *Format     `json:"format,omitempty" doc:"Current physical format"`
	SupportedFormats []Format    `json:"supported_formats" doc:"Physical formats the device offers"`
}

type DeviceResponse struct {
	Body DeviceData
}

// Reconfiguration models
type SampleRateRequest struct {
	SampleRate float64 `json:"sample_rate" example:"96000" minimum:"1" doc:"Requested nominal sample rate in Hz"`
}

type FormatRequest struct {
	SampleRate     float64 `json:"sample_rate" example:"48000" minimum:"1" doc:"Sample rate in Hz"`
	Channels       uint32  `json:"channels" example:"2" minimum:"1" doc:"Channels per frame"`
	BitsPerChannel uint32  `json:"bits_per_channel" example:"24" minimum:"8" multipleOf:"8" doc:"Bits per channel"`
	Float          bool    `json:"float,omitempty" doc:"Use floating point samples"`
}

type ReconfigureData struct {
	ID         uint32  `json:"id" example:"57" doc:"Audio object ID"`
	SampleRate float64 `json:"sample_rate" example:"96000" doc:"Sample rate reported after the change"`
	Format     *Format `json:"format,omitempty" doc:"Physical format reported after the change"`
}

type ReconfigureResponse struct {
	Body ReconfigureData
}

// Profile models
type ProfileDevice struct {
	Name           string  `json:"name,omitempty" example:"Scarlett 2i2 USB" doc:"Device name"`
	ID             uint32  `json:"id,omitempty" doc:"Device ID when pinned by ID"`
	SampleRate     float64 `json:"sample_rate,omitempty" example:"48000" doc:"Pinned sample rate"`
	Channels       uint32  `json:"channels,omitempty" doc:"Pinned channel count"`
	BitsPerChannel uint32  `json:"bits_per_channel,omitempty" doc:"Pinned bit depth"`
	Float          bool    `json:"float,omitempty" doc:"Pinned sample type"`
}

type ProfileData struct {
	Devices []ProfileDevice `json:"devices" doc:"Pinned devices"`
}

type ProfileResponse struct {
	Body ProfileData
}

type ApplyData struct {
	Devices int      `json:"devices" example:"2" doc:"Devices in the profile"`
	Changed int      `json:"changed" example:"1" doc:"Devices that had to be reconfigured"`
	Failed  []string `json:"failed" doc:"Devices that could not be pinned"`
}

type ApplyResponse struct {
	Body ApplyData
}
