package probe

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	"golang.org/x/crypto/sha3"

	"github.com/nao1215/identscan/internal/model"
)

// EXIFProbe extracts the SHA3-256 fingerprint and EXIF metadata of an image
// subject. It is a signal probe: an image without EXIF data still yields a
// Found outcome with the fingerprint.
type EXIFProbe struct {
	desc Descriptor
}

// NewEXIFProbe creates an EXIFProbe.
func NewEXIFProbe(desc Descriptor) *EXIFProbe {
	desc.Source = SourceLocal
	desc.Signal = true
	return &EXIFProbe{desc: desc}
}

// Descriptor implements Probe.
func (p *EXIFProbe) Descriptor() Descriptor { return p.desc }

// Execute implements Probe.
func (p *EXIFProbe) Execute(ctx context.Context, subject model.Subject) Outcome {
	data, err := os.ReadFile(subject.Value())
	if err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: read image: %v", p.desc.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return failureFromError(ctx, p.desc.Name, err)
	}

	sum := sha3.Sum256(data)
	info := model.ImageInfo{
		SHA3:      hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(data)),
		Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(subject.Value())), "."),
	}

	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return FoundSignals(model.Signals{Image: &info})
		}
		return Fail(model.ErrorMalformedResponse, "%s: locate EXIF: %v", p.desc.Name, err)
	}

	entries, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return Fail(model.ErrorMalformedResponse, "%s: parse EXIF: %v", p.desc.Name, err)
	}

	applyExifTags(&info, entries)
	return FoundSignals(model.Signals{Image: &info})
}

// applyExifTags copies identifying EXIF tags into info.
func applyExifTags(info *model.ImageInfo, entries []exif.ExifTag) {
	var cameraMake, modelName string
	gps := model.GPSCoordinates{}

	for _, entry := range entries {
		value := strings.TrimSpace(entry.Formatted)
		if value == "" {
			continue
		}
		info.ExifTags++

		switch entry.TagName {
		case "GPSLatitude":
			gps.Latitude = value
		case "GPSLongitude":
			gps.Longitude = value
		case "GPSAltitude":
			gps.Altitude = value
		case "Make":
			cameraMake = value
		case "Model":
			modelName = value
		case "BodySerialNumber", "SerialNumber", "CameraSerialNumber":
			info.Serial = value
		case "Software", "ProcessingSoftware":
			info.Software = value
		case "Artist":
			info.Artist = value
		case "Copyright":
			info.Copyright = value
		case "DateTimeOriginal":
			info.TakenAt = value
		case "DateTime":
			if info.TakenAt == "" {
				info.TakenAt = value
			}
		}
	}

	info.Camera = strings.TrimSpace(cameraMake + " " + modelName)
	if gps.Latitude != "" && gps.Longitude != "" {
		info.GPS = &gps
	}
}
