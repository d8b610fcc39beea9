package h264encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/mcapvideo/pkg/ports"
)

const muxTimescale = 90000

type accessUnit struct {
	data        []byte // AVCC, without parameter sets
	timestampMs int
	keyframe    bool
}

// Muxer packs Annex-B H.264 access units into a fragmented MP4 without
// re-encoding. Parameter sets come from the first keyframe, or from the
// latest units that carried them when the keyframe has none. The track
// dimensions come from the SPS.
type Muxer struct {
	fps float64

	mu         sync.Mutex
	pendingSPS []byte
	pendingPPS []byte
	sps        []byte
	pps        []byte
	width   int
	height  int
	samples []accessUnit
}

// NewMuxer creates a muxer. fps sets the duration of the last sample.
func NewMuxer(fps float64) *Muxer {
	if fps <= 0 {
		fps = 30
	}
	return &Muxer{fps: fps}
}

// AddAccessUnit appends one access unit. Units before the first keyframe
// with usable SPS and PPS are rejected with ports.ErrNoKeyframe, units
// without slices with ports.ErrEmptyAccessUnit.
func (m *Muxer) AddAccessUnit(data []byte, timestampMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	nalus := avc.ExtractNalusFromByteStream(data)
	keyframe := false
	payload := make([]byte, 0, len(data)+4*len(nalus))

	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		switch avc.GetNaluType(nalu[0]) {
		case avc.NALU_SPS:
			m.pendingSPS = append([]byte(nil), nalu...)
			continue
		case avc.NALU_PPS:
			m.pendingPPS = append([]byte(nil), nalu...)
			continue
		case avc.NALU_AUD:
			continue
		case avc.NALU_IDR:
			keyframe = true
		}
		payload = binary.BigEndian.AppendUint32(payload, uint32(len(nalu)))
		payload = append(payload, nalu...)
	}

	if len(payload) == 0 {
		return fmt.Errorf("%w: unit at %dms", ports.ErrEmptyAccessUnit, timestampMs)
	}

	if m.sps == nil {
		if !keyframe || m.pendingSPS == nil || m.pendingPPS == nil {
			return ports.ErrNoKeyframe
		}
		parsed, err := avc.ParseSPSNALUnit(m.pendingSPS, false)
		if err != nil {
			m.pendingSPS = nil
			return fmt.Errorf("%w: parse SPS: %v", ports.ErrNoKeyframe, err)
		}
		m.sps, m.pps = m.pendingSPS, m.pendingPPS
		m.width = int(parsed.Width)
		m.height = int(parsed.Height)
	}

	m.samples = append(m.samples, accessUnit{
		data:        payload,
		timestampMs: timestampMs,
		keyframe:    keyframe,
	})
	return nil
}

// SampleCount returns the number of samples accepted so far.
func (m *Muxer) SampleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}

// Dimensions returns the width and height parsed from the SPS.
func (m *Muxer) Dimensions() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

// End builds the MP4 file.
func (m *Muxer) End() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.samples) == 0 {
		return nil, ErrNoFrames
	}

	trackID := uint32(1)
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(muxTimescale, "video", "und")
	trak := init.Moov.Trak

	avcC, err := mp4.CreateAvcC([][]byte{m.sps}, [][]byte{m.pps}, true)
	if err != nil {
		return nil, fmt.Errorf("create avcC: %w", err)
	}
	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(m.width), uint16(m.height), avcC)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	trak.Tkhd.Width = mp4.Fixed32(m.width << 16)
	trak.Tkhd.Height = mp4.Fixed32(m.height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	defaultDur := uint32(float64(muxTimescale) / m.fps)
	decodeTime := uint64(0)
	for i, s := range m.samples {
		dur := defaultDur
		if i < len(m.samples)-1 {
			if d := m.samples[i+1].timestampMs - s.timestampMs; d > 0 {
				dur = uint32(d * muxTimescale / 1000)
			}
		}

		flags := mp4.NonSyncSampleFlags
		if s.keyframe {
			flags = mp4.SyncSampleFlags
		}

		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(s.data)),
				Dur:   dur,
			},
			DecodeTime: decodeTime,
			Data:       s.data,
		})
		decodeTime += uint64(dur)
	}

	var buf bytes.Buffer

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}

	return buf.Bytes(), nil
}

// Ensure Muxer implements ports.StreamMuxer
var _ ports.StreamMuxer = (*Muxer)(nil)
