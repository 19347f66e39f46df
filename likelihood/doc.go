// Package likelihood provides observation models for sparse variational GP
// inference.
//
// A Likelihood returns, for every data point, the expected log-likelihood
// F = E_q[log p(y|f)] under q(f) = N(mu, v), together with ∂F/∂mu, ∂F/∂v and
// the gradient of ΣF with respect to the likelihood's own hyperparameters.
//
// Gaussian is evaluated in closed form. Any other pointwise LogDensity
// (Bernoulli with probit link, Poisson with log link) is integrated with
// Gauss–Hermite quadrature through Quadrature:
//
//	q, err := likelihood.NewQuadrature(likelihood.Bernoulli{}, 0) // 20 nodes
//	ex, err := q.VariationalExpectations(y, mu, v)
package likelihood
