package vista

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TourPanorama is the panorama block of a tour file: the source the host's
// loader resolves plus the crop metadata that maps the texture onto the
// sphere. A zero crop means the texture covers the whole sphere and its
// dimensions are up to the loader.
type TourPanorama struct {
	Source     string `yaml:"source"`
	Projection string `yaml:"projection,omitempty"` // "equirectangular" (default) or "cubemap"
	FullWidth  int    `yaml:"fullWidth,omitempty"`
	FullHeight int    `yaml:"fullHeight,omitempty"`
	CroppedX   int    `yaml:"croppedX,omitempty"`
	CroppedY   int    `yaml:"croppedY,omitempty"`
}

// panorama resolves the block into panorama metadata. The texture handle
// stays nil; only a loader can fill it in.
func (p TourPanorama) panorama() (*Panorama, error) {
	proj := Equirectangular
	switch p.Projection {
	case "", "equirectangular":
	case "cubemap":
		proj = Cubemap
	default:
		return nil, configErrorf("projection", "unknown projection %q", p.Projection)
	}
	return &Panorama{
		Source:     p.Source,
		Projection: proj,
		Crop: CropRect{
			FullWidth:  p.FullWidth,
			FullHeight: p.FullHeight,
			X:          p.CroppedX,
			Y:          p.CroppedY,
		},
	}, nil
}

// TourAutorotate is the autorotate block of a tour file. Speed is a
// ParseSpeed expression; Delay a time.ParseDuration one.
type TourAutorotate struct {
	Enabled  bool     `yaml:"enabled"`
	Speed    string   `yaml:"speed,omitempty"`
	Latitude *float64 `yaml:"latitude,omitempty"`
	Delay    string   `yaml:"delay,omitempty"`
}

// Tour is a declarative viewer setup: a panorama, a camera starting point,
// optional constraints and autorotate settings, and a marker set. Tours are
// how deployments ship a scene without writing host code for every change.
type Tour struct {
	Panorama   TourPanorama    `yaml:"panorama"`
	Position   *Position       `yaml:"position,omitempty"`
	Zoom       *float64        `yaml:"zoom,omitempty"`
	Ranges     *Ranges         `yaml:"ranges,omitempty"`
	Autorotate *TourAutorotate `yaml:"autorotate,omitempty"`
	Markers    []MarkerConfig  `yaml:"markers,omitempty"`
}

// ParseTour decodes a tour document. Unknown fields are rejected, so typos
// in hand-written files surface as errors instead of silently missing
// options. Marker configs are validated later, when the tour is applied.
func ParseTour(data []byte) (*Tour, error) {
	var t Tour
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("vista: parsing tour: %w", err)
	}
	if _, err := t.Panorama.panorama(); err != nil {
		return nil, err
	}
	if ar := t.Autorotate; ar != nil {
		if ar.Speed != "" {
			if _, err := ParseSpeed(ar.Speed); err != nil {
				return nil, err
			}
		}
		if ar.Delay != "" {
			if _, err := time.ParseDuration(ar.Delay); err != nil {
				return nil, configErrorf("delay", "bad duration %q", ar.Delay)
			}
		}
	}
	return &t, nil
}

// LoadTour reads and parses a tour file.
func LoadTour(path string) (*Tour, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vista: reading tour: %w", err)
	}
	return ParseTour(data)
}

// ApplyTour installs a tour on the viewer: panorama metadata first (so
// pixel-positioned markers can resolve), then the marker set as one atomic
// swap, then camera position, zoom, ranges, and autorotate. When the viewer
// has a loader the panorama texture is queued through it; otherwise only
// the metadata is installed and the texture stays the host's problem.
//
// On error the marker set and panorama metadata are left as they were.
// Camera state is only touched after every fallible step has passed.
func (v *Viewer) ApplyTour(t *Tour) error {
	pano, err := t.Panorama.panorama()
	if err != nil {
		return err
	}
	if t.Panorama.Source != "" && v.caps.Loader && v.loading {
		return ErrLoadInProgress
	}
	speed := v.autorotateSpeed
	delay := v.autorotateDelay
	if ar := t.Autorotate; ar != nil {
		if ar.Speed != "" {
			if speed, err = ParseSpeed(ar.Speed); err != nil {
				return err
			}
		}
		if ar.Delay != "" {
			if delay, err = time.ParseDuration(ar.Delay); err != nil {
				return configErrorf("delay", "bad duration %q", ar.Delay)
			}
		}
	}

	if t.Panorama.Source != "" {
		prev := v.pano
		v.conv.SetPanorama(pano)
		if _, err := v.markers.SetAll(t.Markers); err != nil {
			v.conv.SetPanorama(prev)
			return err
		}
		if v.caps.Loader {
			if err := v.SetPanorama(t.Panorama.Source); err != nil {
				return err
			}
		} else {
			v.pano = pano
		}
	} else if _, err := v.markers.SetAll(t.Markers); err != nil {
		return err
	}

	if t.Ranges != nil {
		v.ranges = *t.Ranges
	}
	if t.Zoom != nil {
		v.zoom = clampZoom(*t.Zoom)
		v.viewDirty = true
	}
	if t.Position != nil {
		v.moveTo(*t.Position)
	} else {
		// Ranges or zoom may have shifted; re-clamp in place.
		v.moveTo(v.position)
	}

	v.autorotateSpeed = speed
	v.autorotateDelay = delay
	if ar := t.Autorotate; ar != nil {
		if ar.Latitude != nil {
			v.autorotateLat = clampLatitude(*ar.Latitude)
		}
		if ar.Enabled {
			v.StartAutorotate()
		} else {
			v.StopAutorotate()
		}
	}
	v.viewDirty = true
	v.log.Info().Str("source", t.Panorama.Source).Int("markers", len(t.Markers)).Msg("tour applied")
	return nil
}
