// Package inference implements one step of sparse variational Gaussian process
// (SVGP) inference: given the variational distribution q(u) = N(m, S) over M
// inducing values, it returns the evidence lower bound
//
//	ELBO = Σᵢ E_q[log p(yᵢ | fᵢ)] − KL(q(u) ‖ p(u))
//
// and its gradients with respect to m, the packed Cholesky factor of S, the
// kernel matrices Kmm, Kmn and diag Knn, and the likelihood hyperparameters.
// An outer optimizer chains these into kernel and inducing-input gradients.
//
// Stages, in order:
//  1. Expansion: unpack L from its M(M+1)/2 parameters, S = L·Lᵀ, S⁻¹ from L
//     and log|S|. A zero pivot or non-finite S⁻¹ fails with ErrUnstableCholesky.
//  2. Propagation: Kmm⁻¹ and log|Kmm| via linalg.Pdinv (jittered Cholesky),
//     A = Knm·Kmm⁻¹, marginal means mu = A·m and variances
//     v = diag Knn − rowsum(A ⊙ Knm) + rowsum(A ⊙ A·S).
//  3. KL divergence between q(u) and the prior N(0, Kmm), with its gradients.
//  4. Assembly: the likelihood's variational expectations at (mu, v) chained
//     back through A onto m, S, Kmm and Kmn; S gradients mapped onto L.
//
// Two entry points share these stages. Inference evaluates the kernel itself;
// Run takes precomputed Covariances, which is what finite-difference checks
// perturb. Both are stateless and safe for concurrent use; no state survives a
// call.
//
// Only single-column targets are supported: Y with more than one column fails
// with ErrMultiOutput before anything is computed.
//
// Example:
//
//	k := kern.RBF{Variance: 1, Lengthscale: 0.5}
//	lik := likelihood.Gaussian{Variance: 0.1}
//	res, err := inference.Inference(m, chol, k, X, Z, lik, Y,
//		inference.WithLogger(logger))
//	if err != nil {
//		// ErrMultiOutput, ErrUnstableCholesky, linalg.ErrNotPositiveDefinite, ...
//	}
//	fmt.Println(res.LogMarginal, res.Gradients.DLDChol)
package inference
