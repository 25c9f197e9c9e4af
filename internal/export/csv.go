package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Guliveer/sadfjson/internal/models"
)

func init() {
	Register(&CSVFormat{})
}

var csvHeader = []string{"path", "host", "unix", "offset", "value"}

// CSVFormat writes comma-separated rows with a header line.
type CSVFormat struct{}

func (f *CSVFormat) Name() string         { return "csv" }
func (f *CSVFormat) Extensions() []string { return []string{".csv"} }

func (f *CSVFormat) Write(w io.Writer, series ...models.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range series {
		for _, p := range s.Points {
			row := []string{
				s.Path,
				s.Host,
				strconv.FormatInt(p.Unix, 10),
				strconv.FormatInt(p.Offset, 10),
				strconv.FormatFloat(p.Value, 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
