// Package codecdetect probes written MP4 files: codec, frame size and
// sample count.
package codecdetect

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/mcapvideo/pkg/ports"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecMPEG4   Codec = "mpeg4"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecUnknown Codec = "unknown"
)

// Info describes the first video track of an MP4 file.
type Info struct {
	Codec       Codec
	Width       int
	Height      int
	SampleCount int
	Fragmented  bool
}

// DetectFromFile detects the video codec used in an MP4 file.
func DetectFromFile(path string) (Codec, error) {
	info, err := ProbeFile(path)
	return info.Codec, err
}

// DetectFromBytes detects the video codec from MP4 data bytes.
func DetectFromBytes(data []byte) (Codec, error) {
	info, err := Probe(bytes.NewReader(data))
	return info.Codec, err
}

// ProbeFile probes an MP4 file on disk.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{Codec: CodecUnknown}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// Probe decodes the MP4 structure from reader and describes its first
// video track.
func Probe(reader io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return Info{Codec: CodecUnknown}, fmt.Errorf("decode mp4: %w", err)
	}

	// Reset reader position for subsequent reads
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Info{Codec: CodecUnknown}, fmt.Errorf("seek: %w", err)
	}

	return probeMP4File(mp4File)
}

func probeMP4File(mp4File *mp4.File) (Info, error) {
	var moov *mp4.MoovBox
	fragmented := mp4File.IsFragmented()
	if fragmented && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	} else {
		moov = mp4File.Moov
	}
	if moov == nil {
		return Info{Codec: CodecUnknown}, fmt.Errorf("no moov box found")
	}

	for _, trak := range moov.Traks {
		codec, ok := videoCodec(trak)
		if !ok {
			continue
		}

		info := Info{
			Codec:      codec,
			Fragmented: fragmented,
		}
		var trackID uint32
		if trak.Tkhd != nil {
			trackID = trak.Tkhd.TrackID
			info.Width = int(trak.Tkhd.Width >> 16)
			info.Height = int(trak.Tkhd.Height >> 16)
		}

		if fragmented {
			for _, seg := range mp4File.Segments {
				for _, frag := range seg.Fragments {
					if frag.Moof == nil {
						continue
					}
					for _, traf := range frag.Moof.Trafs {
						if traf.Tfhd == nil || traf.Tfhd.TrackID != trackID {
							continue
						}
						for _, trun := range traf.Truns {
							info.SampleCount += int(trun.SampleCount())
						}
					}
				}
			}
		} else if stsz := trak.Mdia.Minf.Stbl.Stsz; stsz != nil {
			info.SampleCount = int(stsz.SampleNumber)
		}

		return info, nil
	}

	return Info{Codec: CodecUnknown}, fmt.Errorf("no video track found")
}

// videoCodec reports the codec of a video track, or false for other tracks.
func videoCodec(trak *mp4.TrakBox) (Codec, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return CodecUnknown, false
	}

	// Only process video tracks
	if trak.Mdia.Hdlr.HandlerType != "vide" {
		return CodecUnknown, false
	}

	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown, false
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264, true
		case "mp4v":
			return CodecMPEG4, true
		case "hvc1", "hev1":
			return CodecHEVC, true
		case "av01":
			return CodecAV1, true
		}
	}

	return CodecUnknown, true
}

// Prober implements ports.VideoProber.
type Prober struct{}

// NewProber creates a new Prober.
func NewProber() *Prober {
	return &Prober{}
}

// Probe describes the first video track of MP4 data.
func (p *Prober) Probe(data []byte) (ports.VideoInfo, error) {
	info, err := Probe(bytes.NewReader(data))
	if err != nil {
		return ports.VideoInfo{Codec: string(CodecUnknown)}, err
	}
	return ports.VideoInfo{
		Codec:       string(info.Codec),
		Width:       info.Width,
		Height:      info.Height,
		SampleCount: info.SampleCount,
	}, nil
}

var _ ports.VideoProber = (*Prober)(nil)
