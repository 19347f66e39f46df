// Package config loads an inference problem from YAML.
//
// Configuration sources, highest priority first:
//
//  1. Environment variables with the SVGP_ prefix, dots replaced by
//     underscores (SVGP_LIKELIHOOD_VARIANCE=0.05).
//  2. The YAML file passed to Load.
//  3. Defaults registered by SetDefaults.
//
// Example file:
//
//	kernel:
//	  type: rbf
//	  variance: 1.0
//	  lengthscale: 0.7
//	likelihood:
//	  type: gaussian
//	  variance: 0.1
//	data:
//	  path: train.csv      # last column is the target
//	  header: true
//	inducing:
//	  count: 10            # rows of X spread evenly
//	variational:
//	  init: prior          # S = Kmm, m = 0
//
// Every value is validated on load; failures wrap ErrInvalidConfig.
package config
