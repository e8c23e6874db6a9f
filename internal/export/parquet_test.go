package export_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/internal/export"
)

func jacobians(t *testing.T) map[curve.Name]*curve.JacobianCalibrationMatrix {
	t.Helper()
	ois := []curve.ParameterSize{{Name: "USD-OIS", ParameterCount: 2}}
	libor := append(append([]curve.ParameterSize(nil), ois...), curve.ParameterSize{Name: "USD-LIBOR-3M", ParameterCount: 1})

	jo, err := curve.NewJacobianCalibrationMatrix(ois, mat.NewDense(2, 2, []float64{1, 0, 0.5, 2}))
	require.NoError(t, err)
	jl, err := curve.NewJacobianCalibrationMatrix(libor, mat.NewDense(1, 3, []float64{-0.1, -0.2, 3}))
	require.NoError(t, err)
	return map[curve.Name]*curve.JacobianCalibrationMatrix{"USD-OIS": jo, "USD-LIBOR-3M": jl}
}

func TestJacobianRows(t *testing.T) {
	t.Parallel()

	rows := export.JacobianRows("run-1", jacobians(t))
	require.Len(t, rows, 7)

	// USD-LIBOR-3M sorts first.
	assert.Equal(t, export.JacobianRow{RunID: "run-1", Curve: "USD-LIBOR-3M", Parameter: 0, QuoteCurve: "USD-OIS", QuoteNumber: 0, Value: -0.1}, rows[0])
	assert.Equal(t, export.JacobianRow{RunID: "run-1", Curve: "USD-LIBOR-3M", Parameter: 0, QuoteCurve: "USD-LIBOR-3M", QuoteNumber: 0, Value: 3}, rows[2])
	assert.Equal(t, export.JacobianRow{RunID: "run-1", Curve: "USD-OIS", Parameter: 1, QuoteCurve: "USD-OIS", QuoteNumber: 0, Value: 0.5}, rows[5])
	assert.Equal(t, 2.0, rows[6].Value)

	assert.Empty(t, export.JacobianRows("run-2", nil))
}

func TestWriteJacobians(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, export.WriteJacobians(&buf, "run-1", jacobians(t)))

	b := buf.Bytes()
	require.Greater(t, len(b), 8)
	assert.Equal(t, "PAR1", string(b[:4]))
	assert.Equal(t, "PAR1", string(b[len(b)-4:]))
}
