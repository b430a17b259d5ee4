package dbarts

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/KARARIS/dbarts/internal/cutpoint"
)

// Data gathers the §6 data inputs: training and (optional) test predictors,
// the response, and per-variable metadata used to build cut points.
type Data struct {
	Y []float64
	X [][]float64 // X[j] is the j-th predictor column, length n

	Weights []float64 // length n, defaults to all-ones if nil
	Offset  []float64 // length n, defaults to all-zeros if nil

	XTest      [][]float64 // XTest[j] is the j-th predictor column, length m
	TestOffset []float64   // length m, defaults to all-zeros if nil

	VariableTypes []cutpoint.VariableType // length p, defaults to all-Ordinal if nil
	MaxNumCuts    []int                   // length p, defaults to 100 per variable if nil

	// SigmaEstimate seeds the residual-variance prior's calibration (§4.4).
	// Zero selects the sample standard deviation of the working response
	// (Y minus Offset rescaled to [-0.5, 0.5], or the initial latent values
	// for a binary response).
	SigmaEstimate float64
}

func (d Data) validate() error {
	if len(d.Y) == 0 || len(d.X) == 0 {
		return ErrEmptyData
	}
	n := len(d.Y)
	for _, col := range d.X {
		if len(col) != n {
			return ErrLengthMismatch
		}
	}
	if d.Weights != nil && len(d.Weights) != n {
		return ErrLengthMismatch
	}
	if d.Offset != nil && len(d.Offset) != n {
		return ErrLengthMismatch
	}
	for _, w := range d.Weights {
		if w <= 0 {
			return ErrNonPositiveWeight
		}
	}
	p := len(d.X)
	if d.VariableTypes != nil && len(d.VariableTypes) != p {
		return ErrVariableTypeCount
	}
	if d.MaxNumCuts != nil && len(d.MaxNumCuts) != p {
		return ErrVariableTypeCount
	}
	if len(d.XTest) != 0 {
		if len(d.XTest) != p {
			return ErrLengthMismatch
		}
		m := len(d.XTest[0])
		for _, col := range d.XTest {
			if len(col) != m {
				return ErrLengthMismatch
			}
		}
		if d.TestOffset != nil && len(d.TestOffset) != m {
			return ErrLengthMismatch
		}
	}
	if d.SigmaEstimate < 0 {
		return ErrNonPositiveSigmaEst
	}
	return nil
}

func (d Data) binaryResponseOK() error {
	for _, y := range d.Y {
		if y != 0 && y != 1 {
			return ErrBinaryResponseVals
		}
	}
	return nil
}

// LoadCSV reads a headerless comma-separated file whose first column is the
// response and remaining columns are predictors, adapted from the teacher's
// dataset loader for dbarts' column-major Data shape.
func LoadCSV(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, errors.Wrap(err, "dbarts: opening csv")
	}
	defer f.Close()

	var y []float64
	var cols [][]float64

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if cols == nil {
			cols = make([][]float64, len(fields)-1)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return Data{}, errors.Wrapf(err, "dbarts: parsing response %q", fields[0])
		}
		y = append(y, v)
		for j, field := range fields[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return Data{}, errors.Wrapf(err, "dbarts: parsing predictor %q", field)
			}
			cols[j] = append(cols[j], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return Data{}, errors.Wrap(err, "dbarts: scanning csv")
	}

	return Data{Y: y, X: cols}, nil
}
