package export

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/Guliveer/sadfjson/internal/models"
)

func init() {
	Register(&JSONLFormat{})
}

type jsonlRow struct {
	Path   string  `json:"path"`
	Host   string  `json:"host"`
	Unix   int64   `json:"unix"`
	Offset int64   `json:"offset"`
	Value  float64 `json:"value"`
}

// JSONLFormat writes one JSON object per line.
type JSONLFormat struct{}

func (f *JSONLFormat) Name() string         { return "jsonl" }
func (f *JSONLFormat) Extensions() []string { return []string{".jsonl"} }

func (f *JSONLFormat) Write(w io.Writer, series ...models.Series) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, s := range series {
		for _, p := range s.Points {
			row := jsonlRow{Path: s.Path, Host: s.Host, Unix: p.Unix, Offset: p.Offset, Value: p.Value}
			if err := enc.Encode(row); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
