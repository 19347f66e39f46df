// Package svgp computes one step of sparse variational Gaussian process
// inference: the evidence lower bound (ELBO) of a GP with M inducing inputs
// and its gradients with respect to the variational parameters, the kernel
// matrices and the likelihood hyperparameters.
//
// What is inside:
//
//	• choleskies  – packed lower-triangular parameters ↔ gonum TriDense
//	• linalg      – jittered Cholesky, Pdinv, Cholesky-based inverses
//	• kern        – RBF and Matérn stationary kernels, kernel sums
//	• likelihood  – Gaussian closed form; Bernoulli (probit) and Poisson
//	                by Gauss–Hermite quadrature
//	• inference   – the step itself: Inference, Run, Posterior.Predict
//
// A minimal call:
//
//	res, err := inference.Inference(mean, chol, kern.RBF{Variance: 1, Lengthscale: 1},
//		x, z, likelihood.Gaussian{Variance: 0.1}, y)
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.LogMarginal, res.Gradients.DLDm)
//
// The svgp command (cmd/svgp) runs the same step from a YAML file and can
// verify every gradient by central finite differences.
package svgp
