package h264encoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// AvailableEncoders lists the video encoders compiled into ffmpeg.
func AvailableEncoders(ctx context.Context) (map[string]bool, error) {
	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}

	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("list ffmpeg encoders: %w", err)
	}
	return parseEncoderList(out), nil
}

// HasCodec reports whether ffmpeg can encode with codec.
func HasCodec(ctx context.Context, codec Codec) (bool, error) {
	encoders, err := AvailableEncoders(ctx)
	if err != nil {
		return false, err
	}
	return encoders[string(codec)], nil
}

// parseEncoderList parses `ffmpeg -encoders` output. Encoder lines start
// with a six character capability field whose first letter is V for video:
//
//	V....D libx264              libx264 H.264 / AVC ...
func parseEncoderList(out []byte) map[string]bool {
	encoders := make(map[string]bool)
	started := false

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !started {
			// The legend ends with a dashed separator line.
			started = strings.HasPrefix(line, "---")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 || fields[0][0] != 'V' {
			continue
		}
		encoders[fields[1]] = true
	}
	return encoders
}
