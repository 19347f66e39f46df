// SPDX-License-Identifier: MIT
package choleskies

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/linalg"
)

var (
	// ErrBadLength indicates a flat vector whose length is not a triangular number M(M+1)/2.
	ErrBadLength = errors.New("choleskies: flat length is not a triangular number")

	// ErrEmpty indicates a zero-sized block or an empty block list.
	ErrEmpty = errors.New("choleskies: empty input")

	// ErrNonSquare signals that a dense triangle to be packed is not square.
	ErrNonSquare = errors.New("choleskies: matrix is not square")

	// ErrBlockMismatch indicates blocks of different sizes in a multi-block call.
	ErrBlockMismatch = errors.New("choleskies: blocks differ in size")
)

// PackedLen returns the number of free parameters of an m×m lower triangle.
func PackedLen(m int) int {
	return m * (m + 1) / 2
}

// NumInducing recovers M from a packed length n = M(M+1)/2.
//
// Errors: ErrEmpty for n <= 0, ErrBadLength when n is not triangular.
// Complexity: O(1).
func NumInducing(n int) (int, error) {
	if n <= 0 {
		return 0, ErrEmpty
	}
	m := int((math.Sqrt(float64(8*n+1)) - 1) / 2)
	// Guard against floating rounding on either side of the root.
	for PackedLen(m) < n {
		m++
	}
	for m > 0 && PackedLen(m) > n {
		m--
	}
	if PackedLen(m) != n {
		return 0, fmt.Errorf("NumInducing(%d): %w", n, ErrBadLength)
	}

	return m, nil
}

// FlatToTriang unpacks a flat parameter vector into an M×M lower-triangular matrix.
//
// Layout: row-major over the lower triangle,
//
//	flat = [L00, L10, L11, L20, L21, L22, ...]
//
// so entry (i, j), j <= i, lives at flat[i(i+1)/2 + j]. Strictly-upper entries are zero.
//
// Errors: ErrEmpty, ErrBadLength.
// Complexity: Time O(M²), Space O(M²).
func FlatToTriang(flat []float64) (*mat.TriDense, error) {
	m, err := NumInducing(len(flat))
	if err != nil {
		return nil, err
	}
	data := make([]float64, m*m)
	var (
		i, j  int
		count int
	)
	for i = 0; i < m; i++ {
		for j = 0; j <= i; j++ {
			data[i*m+j] = flat[count]
			count++
		}
	}

	return mat.NewTriDense(m, mat.Lower, data), nil
}

// TriangToFlat packs the lower triangle (diagonal included) of a square matrix
// into the layout read by FlatToTriang. Strictly-upper entries are ignored, so
// a dense gradient can be packed directly.
//
// Errors: ErrEmpty (nil), ErrNonSquare.
// Complexity: Time O(M²), Space O(M²).
func TriangToFlat(l mat.Matrix) ([]float64, error) {
	if err := linalg.ValidateNotNil(l); err != nil {
		return nil, ErrEmpty
	}
	r, c := l.Dims()
	if r != c {
		return nil, fmt.Errorf("TriangToFlat(%dx%d): %w", r, c, ErrNonSquare)
	}
	flat := make([]float64, 0, PackedLen(r))
	var i, j int
	for i = 0; i < r; i++ {
		for j = 0; j <= i; j++ {
			flat = append(flat, l.At(i, j))
		}
	}

	return flat, nil
}

// IdentityFlat returns the packed form of the M×M identity, i.e. S = I.
func IdentityFlat(m int) []float64 {
	flat := make([]float64, PackedLen(m))
	for i := 0; i < m; i++ {
		flat[PackedLen(i)+i] = 1
	}

	return flat
}
