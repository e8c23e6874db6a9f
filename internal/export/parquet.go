// Package export writes calibration Jacobians as parquet for offline risk tools.
package export

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/meenmo/curvecal/curve"
)

// JacobianRow is one entry d(parameter)/d(quote).
type JacobianRow struct {
	RunID       string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Curve       string  `parquet:"name=curve, type=BYTE_ARRAY, convertedtype=UTF8"`
	Parameter   int32   `parquet:"name=parameter, type=INT32"`
	QuoteCurve  string  `parquet:"name=quote_curve, type=BYTE_ARRAY, convertedtype=UTF8"`
	QuoteNumber int32   `parquet:"name=quote_number, type=INT32"`
	Value       float64 `parquet:"name=value, type=DOUBLE"`
}

// JacobianRows flattens the Jacobians, curves in name order, rows then columns.
func JacobianRows(runID string, jacobians map[curve.Name]*curve.JacobianCalibrationMatrix) []JacobianRow {
	names := make([]curve.Name, 0, len(jacobians))
	for n := range jacobians {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	var rows []JacobianRow
	for _, name := range names {
		jac := jacobians[name]
		r, _ := jac.Matrix.Dims()
		layout := jac.Layout()
		for i := 0; i < r; i++ {
			for _, ps := range jac.Order {
				start, end, _ := layout.Range(ps.Name)
				for k := start; k < end; k++ {
					rows = append(rows, JacobianRow{
						RunID:       runID,
						Curve:       string(name),
						Parameter:   int32(i),
						QuoteCurve:  string(ps.Name),
						QuoteNumber: int32(k - start),
						Value:       jac.Matrix.At(i, k),
					})
				}
			}
		}
	}
	return rows
}

// WriteJacobians encodes the rows as a snappy-compressed parquet file.
func WriteJacobians(w io.Writer, runID string, jacobians map[curve.Name]*curve.JacobianCalibrationMatrix) error {
	mem := &memFile{buffer: &bytes.Buffer{}}
	pw, err := writer.NewParquetWriter(mem, new(JacobianRow), 1)
	if err != nil {
		return fmt.Errorf("WriteJacobians: new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range JacobianRows(runID, jacobians) {
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			return fmt.Errorf("WriteJacobians: write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("WriteJacobians: finalize: %w", err)
	}
	if _, err := w.Write(mem.buffer.Bytes()); err != nil {
		return fmt.Errorf("WriteJacobians: %w", err)
	}
	return nil
}

// memFile is a write-only source.ParquetFile backed by a buffer.
type memFile struct {
	buffer *bytes.Buffer
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }
