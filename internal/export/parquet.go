package export

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/Guliveer/sadfjson/internal/models"
)

// ParquetBatchSize is the number of rows buffered before each WriteRows call.
const ParquetBatchSize = 1000

func init() {
	Register(&ParquetFormat{})
}

// ParquetRow is the on-disk schema of a parquet export.
type ParquetRow struct {
	Path   string  `parquet:"path,dict"`
	Host   string  `parquet:"host,dict"`
	Unix   int64   `parquet:"unix"`
	Offset int64   `parquet:"offset"`
	Value  float64 `parquet:"value"`
}

// ParquetFormat writes snappy-compressed Parquet files.
type ParquetFormat struct{}

func (f *ParquetFormat) Name() string         { return "parquet" }
func (f *ParquetFormat) Extensions() []string { return []string{".parquet"} }

func (f *ParquetFormat) Write(w io.Writer, series ...models.Series) error {
	pw := parquet.NewGenericWriter[ParquetRow](w, parquet.Compression(&parquet.Snappy))

	batch := make([]ParquetRow, 0, ParquetBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := pw.Write(batch); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, s := range series {
		for _, p := range s.Points {
			batch = append(batch, ParquetRow{Path: s.Path, Host: s.Host, Unix: p.Unix, Offset: p.Offset, Value: p.Value})
			if len(batch) >= ParquetBatchSize {
				if err := flush(); err != nil {
					pw.Close()
					return err
				}
			}
		}
	}
	if err := flush(); err != nil {
		pw.Close()
		return err
	}
	return pw.Close()
}
