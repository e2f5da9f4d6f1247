package outwriter

import (
	"io"

	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/internal/parquet"
	"github.com/huangsam/deepdive/schema"
)

// WriteReportParquet flattens every table into comparison rows of one Parquet file.
func WriteReportParquet(w io.Writer, report *schema.Report, cfg *contract.Config) error {
	return parquet.WriteComparisonRows(w, parquet.ConvertComparisonTables(report.Tables, cfg.Precision))
}
