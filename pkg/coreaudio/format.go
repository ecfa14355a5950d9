package coreaudio

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-audio/audio"
)

// FormatID is the encoding of a stream format.
type FormatID uint32

// FormatLinearPCM is uncompressed PCM.
const FormatLinearPCM FormatID = 'l'<<24 | 'p'<<16 | 'c'<<8 | 'm'

func (f FormatID) String() string { return fourCC(uint32(f)) }

// FormatFlags qualify a FormatID.
type FormatFlags uint32

// Linear PCM format flags.
const (
	FlagIsFloat          FormatFlags = 1 << 0
	FlagIsBigEndian      FormatFlags = 1 << 1
	FlagIsSignedInteger  FormatFlags = 1 << 2
	FlagIsPacked         FormatFlags = 1 << 3
	FlagIsAlignedHigh    FormatFlags = 1 << 4
	FlagIsNonInterleaved FormatFlags = 1 << 5
	FlagIsNonMixable     FormatFlags = 1 << 6
)

var flagNames = []struct {
	flag FormatFlags
	name string
}{
	{FlagIsFloat, "float"},
	{FlagIsBigEndian, "big-endian"},
	{FlagIsSignedInteger, "signed"},
	{FlagIsPacked, "packed"},
	{FlagIsAlignedHigh, "aligned-high"},
	{FlagIsNonInterleaved, "non-interleaved"},
	{FlagIsNonMixable, "non-mixable"},
}

func (f FormatFlags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// StreamFormat mirrors AudioStreamBasicDescription. Its memory layout is the
// platform's: one float64 followed by eight uint32 fields, 40 bytes.
type StreamFormat struct {
	SampleRate       float64
	FormatID         FormatID
	FormatFlags      FormatFlags
	BytesPerPacket   uint32
	FramesPerPacket  uint32
	BytesPerFrame    uint32
	ChannelsPerFrame uint32
	BitsPerChannel   uint32
	Reserved         uint32
}

// NewLinearPCMFormat returns a packed, interleaved linear PCM descriptor with
// every geometry field filled in.
func NewLinearPCMFormat(sampleRate float64, channels, bitsPerChannel uint32, float bool) StreamFormat {
	flags := FlagIsPacked | FlagIsSignedInteger
	if float {
		flags = FlagIsPacked | FlagIsFloat
	}
	bytesPerFrame := channels * (bitsPerChannel / 8)
	return StreamFormat{
		SampleRate:       sampleRate,
		FormatID:         FormatLinearPCM,
		FormatFlags:      flags,
		BytesPerPacket:   bytesPerFrame,
		FramesPerPacket:  1,
		BytesPerFrame:    bytesPerFrame,
		ChannelsPerFrame: channels,
		BitsPerChannel:   bitsPerChannel,
	}
}

// Validate rejects partially filled descriptors.
func (f StreamFormat) Validate() error {
	var missing []string
	if f.SampleRate == 0 {
		missing = append(missing, "sample rate")
	}
	if f.FormatID == 0 {
		missing = append(missing, "format id")
	}
	if f.BytesPerPacket == 0 {
		missing = append(missing, "bytes per packet")
	}
	if f.FramesPerPacket == 0 {
		missing = append(missing, "frames per packet")
	}
	if f.BytesPerFrame == 0 {
		missing = append(missing, "bytes per frame")
	}
	if f.ChannelsPerFrame == 0 {
		missing = append(missing, "channels per frame")
	}
	if f.BitsPerChannel == 0 {
		missing = append(missing, "bits per channel")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: incomplete descriptor, missing %s", ErrUnsupportedFormat, strings.Join(missing, ", "))
	}
	if !validSampleRate(f.SampleRate) {
		return fmt.Errorf("%w: sample rate %g Hz out of range", ErrUnsupportedFormat, f.SampleRate)
	}
	if f.FormatID == FormatLinearPCM && f.FormatFlags&FlagIsNonInterleaved == 0 &&
		f.BytesPerFrame < f.ChannelsPerFrame*((f.BitsPerChannel+7)/8) {
		return fmt.Errorf("%w: %d bytes per frame cannot hold %d channels of %d bits",
			ErrUnsupportedFormat, f.BytesPerFrame, f.ChannelsPerFrame, f.BitsPerChannel)
	}
	return nil
}

// AudioFormat converts the descriptor to a go-audio format.
func (f StreamFormat) AudioFormat() *audio.Format {
	return &audio.Format{
		NumChannels: int(f.ChannelsPerFrame),
		SampleRate:  int(f.SampleRate),
	}
}

func (f StreamFormat) String() string {
	return fmt.Sprintf("%s %g Hz %dch %d-bit [%s] %d B/frame %d B/packet %d frames/packet",
		f.FormatID, f.SampleRate, f.ChannelsPerFrame, f.BitsPerChannel, f.FormatFlags,
		f.BytesPerFrame, f.BytesPerPacket, f.FramesPerPacket)
}

// RatesEqual compares two sample rates at integer-Hz granularity. Hardware
// reports rates with sub-Hz jitter.
func RatesEqual(a, b float64) bool {
	return uint32(a) == uint32(b)
}

// validSampleRate reports whether rate has a defined integer-Hz value: at
// least 1 Hz and below 2^32 Hz. NaN fails both comparisons.
func validSampleRate(rate float64) bool {
	return rate >= 1 && rate < math.MaxUint32+1
}

// FormatsEqual reports whether two descriptors describe the same hardware
// configuration: equal rates at integer-Hz granularity and identical
// structural fields. Reserved is ignored.
func FormatsEqual(a, b StreamFormat) bool {
	return RatesEqual(a.SampleRate, b.SampleRate) &&
		a.FormatID == b.FormatID &&
		a.FormatFlags == b.FormatFlags &&
		a.BytesPerPacket == b.BytesPerPacket &&
		a.FramesPerPacket == b.FramesPerPacket &&
		a.BytesPerFrame == b.BytesPerFrame &&
		a.ChannelsPerFrame == b.ChannelsPerFrame &&
		a.BitsPerChannel == b.BitsPerChannel
}

// ValueRange mirrors AudioValueRange.
type ValueRange struct {
	Minimum float64
	Maximum float64
}

// IsDiscrete reports whether the range is exactly the single rate given, at
// integer-Hz granularity. Continuous ranges that merely contain rate do not
// match.
func (r ValueRange) IsDiscrete(rate float64) bool {
	return RatesEqual(r.Minimum, rate) && RatesEqual(r.Maximum, rate)
}

func (r ValueRange) String() string {
	if RatesEqual(r.Minimum, r.Maximum) {
		return fmt.Sprintf("%g Hz", r.Minimum)
	}
	return fmt.Sprintf("%g-%g Hz", r.Minimum, r.Maximum)
}
