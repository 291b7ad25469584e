package session

import (
	"encoding/json"
	"fmt"
	"image"
	"io"

	"github.com/banshee-data/teclab/internal/stroke"
)

// Script is a recorded labelling interaction: pointer events in display
// image coordinates, replayed in order against a session.
type Script struct {
	// Map is the key to open, "YYYY-MM/index". Empty keeps the open map.
	Map    string  `json:"map,omitempty"`
	Unsure *bool   `json:"unsure,omitempty"`
	Events []Event `json:"events"`
}

// Event is one pointer or control event. Op is one of begin, move, end,
// click, hover, leave, brush or clear.
type Event struct {
	Op   string `json:"op"`
	X    int    `json:"x,omitempty"`
	Y    int    `json:"y,omitempty"`
	Mode string `json:"mode,omitempty"` // paint or erase, for begin and click
	Size int    `json:"size,omitempty"` // for brush
}

// ReadScript decodes a JSON script.
func ReadScript(r io.Reader) (*Script, error) {
	var sc Script
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	return &sc, nil
}

// Replay applies the events of sc to s. The map named by sc, if any, must
// already be open.
func (s *Session) Replay(sc *Script) error {
	if sc.Unsure != nil {
		s.SetUnsure(*sc.Unsure)
	}
	for i, ev := range sc.Events {
		if err := s.apply(ev); err != nil {
			return fmt.Errorf("event %d (%s): %w", i, ev.Op, err)
		}
	}
	return nil
}

func (s *Session) apply(ev Event) error {
	p := image.Pt(ev.X, ev.Y)
	switch ev.Op {
	case "begin", "click":
		mode, err := stroke.ParseMode(ev.Mode)
		if err != nil {
			return err
		}
		if ev.Op == "begin" {
			return s.BeginStroke(p, mode)
		}
		return s.Click(p, mode)
	case "move":
		return s.ContinueStroke(p)
	case "end":
		return s.EndStroke()
	case "hover":
		return s.Hover(p)
	case "leave":
		s.Leave()
		return nil
	case "brush":
		s.SetBrushSize(ev.Size)
		return nil
	case "clear":
		return s.Clear()
	}
	return fmt.Errorf("unknown op %q", ev.Op)
}
