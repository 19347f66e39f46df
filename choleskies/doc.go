// Package choleskies converts between the packed (flat) parameterization of a
// lower-triangular Cholesky factor and its dense triangular form.
//
// A variational covariance S = L·Lᵀ over M inducing values is optimized through
// the M(M+1)/2 free entries of L. The packing is row-major over the lower
// triangle and round-trips exactly:
//
//	flat := []float64{1, 0.5, 2}       // L = [[1, 0], [0.5, 2]]
//	l, _ := choleskies.FlatToTriang(flat)
//	back, _ := choleskies.TriangToFlat(l) // == flat
//
// Several blocks (one per output column) are stored side by side as columns of
// a (M(M+1)/2)×D matrix; see FlatToTriangs, TriangsToFlat and MultipleDpotri.
package choleskies
