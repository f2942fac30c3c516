package scanner

import (
	"encoding/json"
	"io"
)

type JSONOutput struct {
	Path       string  `json:"path"`
	TotalSize  int64   `json:"total_size"`
	TotalFiles int     `json:"total_files"`
	TotalDirs  int     `json:"total_dirs"`
	Children   []Entry `json:"children"`
}

// WriteJSON renders a top-level listing.
func WriteJSON(w io.Writer, root string, entries []Entry) error {
	output := JSONOutput{
		Path:     root,
		Children: entries,
	}
	if output.Children == nil {
		output.Children = []Entry{}
	}

	for _, e := range entries {
		switch {
		case e.IsDir:
			output.TotalDirs++
		case e.Regular:
			output.TotalFiles++
			output.TotalSize += e.Size
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
