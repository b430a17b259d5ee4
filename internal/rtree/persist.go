package rtree

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildFromString reconstructs a Tree's structure from the newline-free
// serialization produced by String(), replaying each split against ctx so
// the observation-index partition is rederived from the data rather than
// stored, per §6's persisted-state format.
func BuildFromString(ctx *Context, n int, kind EndNodeKind, s string) (*Tree, error) {
	t := NewTree(n, kind)
	p := &treeParser{s: s}
	root, err := p.parseNode(t, ctx, t.Root)
	if err != nil {
		return nil, err
	}
	t.Root = root
	if p.pos != len(s) {
		return nil, fmt.Errorf("rtree: trailing data after tree string at byte %d", p.pos)
	}
	return t, nil
}

type treeParser struct {
	s   string
	pos int
}

func (p *treeParser) parseNode(t *Tree, ctx *Context, id NodeID) (NodeID, error) {
	rest := p.s[p.pos:]
	switch {
	case strings.HasPrefix(rest, "L("):
		p.pos += 2
		if _, err := p.readInt(')'); err != nil {
			return NoNode, err
		}
		return id, nil
	case strings.HasPrefix(rest, "N(o,"):
		p.pos += 4
		varIdx, err := p.readInt(',')
		if err != nil {
			return NoNode, err
		}
		cutIdx, err := p.readInt(',')
		if err != nil {
			return NoNode, err
		}
		rule := Rule{Kind: OrdinalRule, VariableIndex: varIdx, CutIndex: cutIdx, CutValue: ctx.Columns[varIdx].Points[cutIdx]}
		return p.finishInternal(t, ctx, id, rule)
	case strings.HasPrefix(rest, "N(c,"):
		p.pos += 4
		varIdx, err := p.readInt(',')
		if err != nil {
			return NoNode, err
		}
		mask, err := p.readHex(',')
		if err != nil {
			return NoNode, err
		}
		rule := Rule{Kind: CategoricalRule, VariableIndex: varIdx, Mask: mask}
		return p.finishInternal(t, ctx, id, rule)
	default:
		return NoNode, fmt.Errorf("rtree: unrecognized token at byte %d", p.pos)
	}
}

func (p *treeParser) finishInternal(t *Tree, ctx *Context, id NodeID, rule Rule) (NodeID, error) {
	left, right := t.split(ctx, id, rule)
	if _, err := p.parseNode(t, ctx, left); err != nil {
		return NoNode, err
	}
	if err := p.expect(','); err != nil {
		return NoNode, err
	}
	if _, err := p.parseNode(t, ctx, right); err != nil {
		return NoNode, err
	}
	if err := p.expect(')'); err != nil {
		return NoNode, err
	}
	return id, nil
}

func (p *treeParser) readInt(delim byte) (int, error) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != delim {
		p.pos++
	}
	if p.pos >= len(p.s) {
		return 0, fmt.Errorf("rtree: expected %q while parsing tree string", delim)
	}
	v, err := strconv.Atoi(p.s[start:p.pos])
	if err != nil {
		return 0, fmt.Errorf("rtree: %w", err)
	}
	p.pos++
	return v, nil
}

func (p *treeParser) readHex(delim byte) (uint64, error) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != delim {
		p.pos++
	}
	if p.pos >= len(p.s) {
		return 0, fmt.Errorf("rtree: expected %q while parsing tree string", delim)
	}
	v, err := strconv.ParseUint(p.s[start:p.pos], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("rtree: %w", err)
	}
	p.pos++
	return v, nil
}

func (p *treeParser) expect(b byte) error {
	if p.pos >= len(p.s) || p.s[p.pos] != b {
		return fmt.Errorf("rtree: expected %q at byte %d", b, p.pos)
	}
	p.pos++
	return nil
}

// LeafScratchValues returns, in leaf traversal order, the Mean-Normal mean
// or LinReg-Normal coefficient vector of every leaf, for persisting as the
// fixed-width-doubles scratch block of §6.
func LeafScratchValues(t *Tree) [][]float64 {
	leaves := t.Leaves()
	out := make([][]float64, len(leaves))
	for i, id := range leaves {
		n := t.Node(id)
		if n.Scratch.Kind == LinRegNormal {
			out[i] = append([]float64(nil), n.Scratch.LinReg.Coefficients...)
		} else {
			out[i] = []float64{n.Scratch.Mean.Mu}
		}
	}
	return out
}

// RestoreLeafScratchValues writes previously-saved leaf values back into
// tree's leaves, in the same traversal order LeafScratchValues produced
// them.
func RestoreLeafScratchValues(t *Tree, kind EndNodeKind, values [][]float64) error {
	leaves := t.Leaves()
	if len(leaves) != len(values) {
		return fmt.Errorf("rtree: leaf count mismatch restoring scratch: tree has %d, state has %d", len(leaves), len(values))
	}
	for i, id := range leaves {
		n := t.Node(id)
		n.Scratch.Kind = kind
		if kind == LinRegNormal {
			n.Scratch.LinReg.Coefficients = append([]float64(nil), values[i]...)
		} else {
			n.Scratch.Mean.Mu = values[i][0]
		}
	}
	return nil
}
