package rtree

// ExtractTrainingFits writes each leaf's drawn parameter across its training
// observation indices (§4.7). For Mean-Normal leaves the row argument is
// unused and Predict is called once per leaf; for LinReg-Normal leaves each
// observation's own predictor row is assembled from ctx.XColumns since the
// leaf's fit varies by row.
func ExtractTrainingFits(ctx *Context, tree *Tree, endPrior EndNodePriorSource, out []float64) {
	row := make([]float64, ctx.NumVariables())
	for _, id := range tree.Leaves() {
		node := tree.Node(id)
		if endPrior.Kind() == MeanNormal {
			leafPred := endPrior.Predict(node, nil)
			for _, idx := range tree.Indices(id) {
				out[idx] = leafPred
			}
			continue
		}
		for _, idx := range tree.Indices(id) {
			for j := range row {
				row[j] = ctx.XColumns[j][idx]
			}
			out[idx] = endPrior.Predict(node, row)
		}
	}
}

// ExtractTestFits maps each test row through the tree's rules to a leaf,
// then evaluates the leaf's drawn parameter against that row (§4.7).
func ExtractTestFits(tree *Tree, endPrior EndNodePriorSource, xTest [][]float64, out []float64) {
	for i, row := range xTest {
		id := tree.Root
		for {
			n := tree.Node(id)
			if n.IsLeaf {
				out[i] = endPrior.Predict(n, row)
				break
			}
			if n.Rule.GoesLeft(row[n.Rule.VariableIndex]) {
				id = n.Left
			} else {
				id = n.Right
			}
		}
	}
}

// VariableUseCounts tallies, for each predictor, how many internal nodes of
// the tree split on it (used to build the §6 variableCountSamples buffer).
func VariableUseCounts(tree *Tree, numVariables int, out []int) {
	for _, id := range tree.Internals() {
		v := tree.Node(id).Rule.VariableIndex
		out[v]++
	}
}
