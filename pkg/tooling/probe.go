package tooling

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ErrNotProbe is returned when probe calibration is imported into a tool
// that is not a touch probe.
var ErrNotProbe = errors.New("tooling: tool is not a touch probe")

type probedPoints struct {
	Points []struct {
		X float64 `xml:"x,attr"`
		Y float64 `xml:"y,attr"`
		Z float64 `xml:"z,attr"`
	} `xml:"point"`
}

// ImportProbeCalibration reads points probed around a reference centre,
//
//	<points><point x="0.02" y="-0.01" z="0"/>...</points>
//
// and stores their average X/Y as the probe offsets. Returns how many
// points were averaged.
func (t *Tool) ImportProbeCalibration(r io.Reader) (int, error) {
	var pp probedPoints
	if err := xml.NewDecoder(r).Decode(&pp); err != nil {
		return 0, fmt.Errorf("read probed points: %w", err)
	}
	if len(pp.Points) == 0 {
		return 0, errors.New("read probed points: no points")
	}

	var sx, sy float64
	for _, pt := range pp.Points {
		sx += pt.X
		sy += pt.Y
	}
	n := float64(len(pp.Points))

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.params.Type != TypeTouchProbe {
		return 0, fmt.Errorf("import calibration into tool %d: %w", t.number, ErrNotProbe)
	}
	p := t.params
	p.ProbeOffsetX = sx / n
	p.ProbeOffsetY = sy / n
	t.setParamsLocked(p)
	return len(pp.Points), nil
}
