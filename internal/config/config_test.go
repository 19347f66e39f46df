// SPDX-License-Identifier: MIT
package config_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/choleskies"
	"github.com/katalvlaran/svgp/internal/config"
	"github.com/katalvlaran/svgp/kern"
	"github.com/katalvlaran/svgp/likelihood"
)

const inlineYAML = `
kernel:
  type: matern52
  variance: 2.0
  lengthscale: 0.5
likelihood:
  type: gaussian
  variance: 0.1
data:
  x: [[0.0], [0.25], [0.5], [0.75], [1.0]]
  y: [0.1, 0.4, 0.2, -0.3, 0.0]
inducing:
  count: 3
`

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())

	return path
}

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("applies defaults and parses inline data", func() {
		cfg, err := config.Load(writeFile(dir, "svgp.yaml", inlineYAML))
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Kernel.Type).To(Equal(config.KernelMatern52))
		Expect(cfg.Variational.Init).To(Equal(config.InitPrior))
		Expect(cfg.Jitter.MaxTries).To(Equal(5))
		Expect(cfg.Jitter.Scale).To(BeNumerically("==", 1e-6))

		x, y, err := cfg.Dataset()
		Expect(err).NotTo(HaveOccurred())
		n, d := x.Dims()
		Expect([]int{n, d}).To(Equal([]int{5, 1}))
		Expect(y.At(3, 0)).To(BeNumerically("==", -0.3))

		z, err := cfg.InducingInputs(x)
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Col(nil, 0, z)).To(Equal([]float64{0, 0.5, 1}))
	})

	It("lets SVGP_* environment variables override the file", func() {
		Expect(os.Setenv("SVGP_LIKELIHOOD_VARIANCE", "0.025")).To(Succeed())
		DeferCleanup(os.Unsetenv, "SVGP_LIKELIHOOD_VARIANCE")

		cfg, err := config.Load(writeFile(dir, "svgp.yaml", inlineYAML))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Likelihood.Variance).To(BeNumerically("==", 0.025))
	})

	It("reads a CSV dataset with a header", func() {
		csvPath := writeFile(dir, "train.csv", "x1,x2,y\n0,1,0.5\n1,0,-0.5\n2,2,1.5\n")
		yaml := strings.Join([]string{
			"data:",
			"  path: " + csvPath,
			"  header: true",
			"inducing:",
			"  z: [[0, 0], [2, 2]]",
		}, "\n")
		cfg, err := config.Load(writeFile(dir, "svgp.yaml", yaml))
		Expect(err).NotTo(HaveOccurred())

		x, y, err := cfg.Dataset()
		Expect(err).NotTo(HaveOccurred())
		Expect(mat.Row(nil, 2, x)).To(Equal([]float64{2, 2}))
		Expect(mat.Col(nil, 0, y)).To(Equal([]float64{0.5, -0.5, 1.5}))

		s := config.Summarize(y)
		Expect(s.Count).To(Equal(3))
		Expect(s.Mean).To(BeNumerically("~", 0.5, 1e-12))
		Expect(s.Min).To(BeNumerically("==", -0.5))
		Expect(s.Max).To(BeNumerically("==", 1.5))
	})

	DescribeTable("rejects invalid files",
		func(content string) {
			_, err := config.Load(writeFile(dir, "svgp.yaml", content))
			Expect(err).To(MatchError(config.ErrInvalidConfig))
		},
		Entry("unknown kernel", "kernel: {type: periodic}\n"+inlineYAML[strings.Index(inlineYAML, "likelihood:"):]),
		Entry("negative noise", strings.Replace(inlineYAML, "variance: 0.1", "variance: -0.1", 1)),
		Entry("ragged x", strings.Replace(inlineYAML, "[0.25]", "[0.25, 1]", 1)),
		Entry("missing inducing", strings.Replace(inlineYAML, "count: 3", "count: 0", 1)),
		Entry("bad init", inlineYAML+"variational:\n  init: random\n"),
		Entry("sum without parts", strings.Replace(inlineYAML, "type: matern52", "type: sum", 1)),
	)

	It("fails on a missing file", func() {
		_, err := config.Load(filepath.Join(dir, "absent.yaml"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("builders", func() {
	It("builds every kernel type, including sums", func() {
		kc := config.KernelConfig{
			Type: config.KernelSum,
			Parts: []config.KernelConfig{
				{Type: config.KernelRBF, Variance: 1, Lengthscale: 1},
				{Type: config.KernelMatern32, Variance: 0.5, Lengthscale: 2},
			},
		}
		k, err := kc.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(BeAssignableToTypeOf(kern.Sum{}))
		Expect(k.(kern.Sum)).To(HaveLen(2))
	})

	It("builds quadrature likelihoods with the requested order", func() {
		lc := config.LikelihoodConfig{Type: config.LikelihoodPoisson, Points: 12}
		lik, err := lc.Build()
		Expect(err).NotTo(HaveOccurred())
		q, ok := lik.(*likelihood.Quadrature)
		Expect(ok).To(BeTrue())
		Expect(q.Points()).To(Equal(12))

		lc = config.LikelihoodConfig{Type: config.LikelihoodGaussian, Variance: 0.2}
		lik, err = lc.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(lik).To(Equal(likelihood.Gaussian{Variance: 0.2}))
	})

	It("initializes q(u) at the prior or at the identity", func() {
		k := kern.RBF{Variance: 1, Lengthscale: 1}
		z := mat.NewDense(2, 1, []float64{0, 1})
		cfg := &config.Config{Variational: config.VariationalConfig{Init: config.InitPrior}}

		q, err := cfg.VariationalParams(k, z)
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Mean).To(Equal([]float64{0, 0}))
		l, err := choleskies.FlatToTriang(q.Chol)
		Expect(err).NotTo(HaveOccurred())
		var s mat.Dense
		s.Mul(l, l.T())
		kmm, _ := k.KSym(z)
		Expect(mat.EqualApprox(&s, kmm, 1e-12)).To(BeTrue())

		cfg.Variational.Init = config.InitIdentity
		q, err = cfg.VariationalParams(k, z)
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Chol).To(Equal([]float64{1, 0, 1}))

		cfg.Variational.Chol = []float64{1, 2}
		_, err = cfg.VariationalParams(k, z)
		Expect(err).To(MatchError(config.ErrInvalidConfig))
	})
})
