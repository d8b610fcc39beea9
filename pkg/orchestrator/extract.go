package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/user/mcapvideo/pkg/pipeline"
	"github.com/user/mcapvideo/pkg/ports"
)

// extractProgressInterval is how often, in frames, extraction progress is
// logged.
const extractProgressInterval = 100

// ExtractResult summarizes an extraction.
type ExtractResult struct {
	MessagesSeen int
	Extracted    int
	Skipped      int
	Files        []string
}

// Extract writes each record of the topic to OutDir as frame_00001.<ext>,
// frame_00002.<ext> and so on. Compressed payloads keep their format,
// raw images are written as PNG, and Raw writes message bytes verbatim.
func (o *Orchestrator) Extract(ctx context.Context, config Config) (ExtractResult, error) {
	var result ExtractResult

	if err := o.openInput(ctx, config.InputPath, config.Topic); err != nil {
		return result, err
	}
	defer o.source.Close()

	o.logger.Info("Extracting images from topic '%s' in '%s'", config.Topic, config.InputPath)

	if err := o.fs.MkdirAll(config.OutDir); err != nil {
		return result, fmt.Errorf("create output directory: %w", err)
	}
	o.logger.Info("Saving frames to '%s'", config.OutDir)

	for config.Limit <= 0 || result.Extracted < config.Limit {
		rec, err := o.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			o.logger.Error("An unexpected error occurred: %v", err)
			return result, err
		}
		result.MessagesSeen++

		data, ext, ok, err := o.extractPayload(ctx, config, rec)
		if err != nil {
			return result, err
		}
		if !ok {
			result.Skipped++
			continue
		}

		index := result.Extracted + 1
		path := filepath.Join(config.OutDir, fmt.Sprintf("frame_%05d.%s", index, ext))
		if err := o.fs.WriteFile(path, data); err != nil {
			return result, fmt.Errorf("write %s: %w", path, err)
		}
		result.Extracted = index
		result.Files = append(result.Files, path)

		if index%extractProgressInterval == 0 {
			o.logger.Info("Saved %d frames...", index)
		}
	}

	if result.Extracted == 0 {
		o.logger.Warn("No messages found on topic '%s'. No frames were extracted.", config.Topic)
	} else {
		o.logger.Info("Done! Extracted %d frames.", result.Extracted)
	}
	return result, nil
}

// extractPayload returns the bytes and extension to write for rec. ok is
// false when the record was skipped.
func (o *Orchestrator) extractPayload(ctx context.Context, config Config, rec ports.Record) (data []byte, ext string, ok bool, err error) {
	if config.Raw {
		return rec.Data, "h264", true, nil
	}

	decoded, err := o.decoder.Execute(ctx, pipeline.DecodeInput{
		Record:   rec,
		Desired:  pipeline.EncodingPassthrough,
		Fallback: true,
	})
	if err != nil {
		return nil, "", false, err
	}

	switch decoded.Outcome {
	case pipeline.OutcomeVideo:
		return decoded.Payload, decoded.PayloadFormat, true, nil
	case pipeline.OutcomeFrame:
		if decoded.PayloadFormat != "" {
			return decoded.Payload, decoded.PayloadFormat, true, nil
		}
		png, err := o.renderer.EncodeImage(decoded.Frame.Image, ports.FormatPNG, 0)
		if err != nil {
			o.logger.Warn("Failed to encode frame at log time %d: %v", rec.LogTimeNs, err)
			return nil, "", false, nil
		}
		return png, "png", true, nil
	default:
		o.logger.Warn("%s", decoded.Reason)
		return nil, "", false, nil
	}
}

// Info lists the channels of the input file.
func (o *Orchestrator) Info(ctx context.Context, inputPath string) ([]ports.ChannelInfo, error) {
	if err := o.openInput(ctx, inputPath, ""); err != nil {
		return nil, err
	}
	defer o.source.Close()

	channels, err := o.source.Channels()
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}
