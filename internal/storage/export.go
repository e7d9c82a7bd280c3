package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run    RunMetadata   `json:"run"`
	Frames []ExportFrame `json:"frames"`
}

type ExportFrame struct {
	ElapsedMS float64 `json:"elapsed_ms"`
	Content   string  `json:"content"`
}

// Export loads a run and its frames as one JSON-ready document.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{Run: *meta, Frames: make([]ExportFrame, len(frames))}
	for i, f := range frames {
		data.Frames[i] = ExportFrame{ElapsedMS: f.At.Seconds() * 1000, Content: f.Content}
	}
	return data, nil
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
