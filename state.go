package dbarts

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/KARARIS/dbarts/internal/rng"
	"github.com/KARARIS/dbarts/internal/rtree"
)

// stateVersion is the 8-byte ASCII version prefix of §6's persisted-state
// file format.
const stateVersion = "00.08.00"

// State is a serializable snapshot of a Fit: its configuration plus the
// working MCMC state (trees, leaf parameters, sigma, working response), per
// §6. Callback is not part of State since a func value can't be serialized;
// RNGState captures the concrete default generator's consumed-draw position
// so that, per §8's round-trip law, loadFromFile resumes the exact same
// draw sequence rather than restarting it from the stored seed. A
// caller-supplied RNG that doesn't expose its state (anything other than
// the package default) can't be captured this way; LoadFromFile then falls
// back to a fresh default RNG reseeded from Control.Seed.
type State struct {
	Control Control
	Model   Model
	Data    Data

	Sigma    float64
	TotalFit []float64
	TreeFits [][]float64
	Y        []float64
	YMin     float64
	YRange   float64
	IsLatent bool

	TreeStrings []string
	LeafKinds   []int
	LeafScratch [][][]float64

	RNGState []byte
}

// CreateState snapshots f's full configuration and working state.
func (f *Fit) CreateState() State {
	control := f.control
	control.RNG = nil
	control.Callback = nil

	treeStrings := make([]string, len(f.trees))
	leafKinds := make([]int, len(f.trees))
	leafScratch := make([][][]float64, len(f.trees))
	for i, tree := range f.trees {
		treeStrings[i] = tree.String()
		leafKinds[i] = int(tree.EndKind)
		leafScratch[i] = rtree.LeafScratchValues(tree)
	}

	var rngState []byte
	if def, ok := f.rngSrc.(*rng.Default); ok {
		rngState = def.StateBytes()
	}

	return State{
		Control:     control,
		Model:       f.model,
		Data:        f.data,
		Sigma:       f.sigma,
		TotalFit:    append([]float64(nil), f.totalFit...),
		TreeFits:    copyMatrix(f.treeFits),
		Y:           append([]float64(nil), f.y...),
		YMin:        f.yMin,
		YRange:      f.yRange,
		IsLatent:    f.isLatent,
		TreeStrings: treeStrings,
		LeafKinds:   leafKinds,
		LeafScratch: leafScratch,
		RNGState:    rngState,
	}
}

// RestoreState rebuilds f's ensemble and working state from a previously
// captured State, replaying each tree's structure against f's current
// Context so partitions are rederived from the data rather than stored. When
// s carries a captured RNG state and f's current RNG is the package default,
// the generator resumes from exactly that draw position.
func (f *Fit) RestoreState(s State) error {
	if len(s.TreeStrings) != len(f.trees) {
		return errors.New("dbarts: state has a different tree count than this fit")
	}
	trees := make([]*rtree.Tree, len(s.TreeStrings))
	for i, ts := range s.TreeStrings {
		n := len(s.Y)
		tree, err := rtree.BuildFromString(&f.ctx, n, rtree.EndNodeKind(s.LeafKinds[i]), ts)
		if err != nil {
			return errors.Wrapf(err, "dbarts: restoring tree %d", i)
		}
		if err := rtree.RestoreLeafScratchValues(tree, rtree.EndNodeKind(s.LeafKinds[i]), s.LeafScratch[i]); err != nil {
			return errors.Wrapf(err, "dbarts: restoring leaf scratch for tree %d", i)
		}
		trees[i] = tree
	}

	f.trees = trees
	f.treeFits = copyMatrix(s.TreeFits)
	f.totalFit = append([]float64(nil), s.TotalFit...)
	f.y = append([]float64(nil), s.Y...)
	f.yMin = s.YMin
	f.yRange = s.YRange
	f.isLatent = s.IsLatent
	f.sigma = s.Sigma

	if len(s.RNGState) > 0 {
		if def, ok := f.rngSrc.(*rng.Default); ok {
			if err := def.SetStateBytes(s.RNGState); err != nil {
				return errors.Wrap(err, "dbarts: restoring rng state")
			}
		}
	}
	return nil
}

// StoreState overwrites an already-allocated State in place with f's current
// configuration and working state, by assigning it the result of
// CreateState. Callers that repeatedly snapshot the same Fit (e.g. a
// checkpointing loop) can reuse one State variable across calls.
func (f *Fit) StoreState(s *State) {
	*s = f.CreateState()
}

// SaveToFile writes f's full state to path in the §6 persisted-state
// format: an 8-byte ASCII version prefix followed by a gob-encoded State.
// On any write failure the partially-written file is unlinked, per §7.
func (f *Fit) SaveToFile(path string) error {
	state := f.CreateState()

	var buf bytes.Buffer
	if _, err := buf.WriteString(stateVersion); err != nil {
		return errors.Wrap(err, "dbarts: writing state version")
	}
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return errors.Wrap(err, "dbarts: encoding state")
	}

	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "dbarts: creating state file %q", path)
	}
	if _, err := buf.WriteTo(out); err != nil {
		out.Close()
		os.Remove(path)
		return errors.Wrapf(err, "dbarts: writing state file %q", path)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "dbarts: closing state file %q", path)
	}
	return nil
}

// LoadFromFile reads a file written by SaveToFile and returns a ready-to-run
// Fit. The default RNG is seeded from the stored Control.Seed and then, via
// RestoreState, its internal state is overwritten with the exact draw
// position captured at save time, so the next sample drawn matches what a
// continuously-run fit would have produced (§8's round-trip law).
func LoadFromFile(path string) (*Fit, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dbarts: opening state file %q", path)
	}
	defer in.Close()

	header := make([]byte, len(stateVersion))
	if _, err := io.ReadFull(in, header); err != nil {
		return nil, errors.Wrap(err, "dbarts: reading state version")
	}
	if string(header) != stateVersion {
		return nil, errors.Errorf("dbarts: unsupported state file version %q", header)
	}

	var state State
	if err := gob.NewDecoder(in).Decode(&state); err != nil {
		return nil, errors.Wrap(err, "dbarts: decoding state")
	}

	control := state.Control
	control.RNG = rng.New(control.Seed)

	f, err := CreateFit(control, state.Model, state.Data)
	if err != nil {
		return nil, errors.Wrap(err, "dbarts: rebuilding fit from state")
	}
	if err := f.RestoreState(state); err != nil {
		return nil, err
	}
	return f, nil
}

func copyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
