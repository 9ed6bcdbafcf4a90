package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/crillab/exactsynth/chain"
	"github.com/crillab/exactsynth/encoder"
	"github.com/crillab/exactsynth/expr"
	"github.com/crillab/exactsynth/gate"
	"github.com/crillab/exactsynth/metrics"
	"github.com/crillab/exactsynth/sat"
	"github.com/crillab/exactsynth/spec"
	"github.com/crillab/exactsynth/synth"
	"github.com/crillab/exactsynth/tt"
)

type options struct {
	family        string
	backend       string
	cegar         bool
	fence         bool
	workers       int
	initialSteps  int
	maxSteps      int
	budget        time.Duration
	attemptBudget time.Duration
	noAlonce      bool
	noColex       bool
	relaxed       bool
	verify        bool

	enumerate int
	dimacs    string
	metrics   bool
	debug     bool

	specFile string
	exprs    []string
	inputs   []string
	nbInputs int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := options{}

	cmd := &cobra.Command{
		Use:   "exactsynth [flags] [hex truth table...]",
		Short: "Finds minimum-size chains of majority or implication gates",
		Long: `exactsynth finds a chain of gates of the smallest possible size computing
the given Boolean functions.

Functions are given either as hexadecimal truth tables (most significant row first),
as formulas with --expr, or as a YAML file with --spec.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetOutput(cmd.ErrOrStderr())
			if o.debug {
				logger.SetLevel(logrus.DebugLevel)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			s, err := o.buildSpec(cmd.Flags(), args)
			if err != nil {
				return err
			}
			return o.run(ctx, cmd.OutOrStdout(), logger, s)
		},
	}

	addSearchFlags(cmd.Flags(), &o)
	addInputFlags(cmd.Flags(), &o)

	cmd.Flags().IntVar(&o.enumerate, "enumerate", 0, "print up to that many minimum-size chains instead of one")
	cmd.Flags().StringVar(&o.dimacs, "dimacs", "", "write the last encoding sent to the solver to that DIMACS file")
	cmd.Flags().BoolVar(&o.metrics, "metrics", false, "print search metrics once done")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "use debug log level")

	return cmd
}

func addSearchFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVarP(&o.family, "family", "f", gate.MAJ3.Name, fmt.Sprintf("gate family (%s)", strings.Join(gate.Names(), ", ")))
	fs.StringVar(&o.backend, "backend", "gini", fmt.Sprintf("SAT backend (%s); gophersat ignores --budget and --attempt-budget", strings.Join(sat.Backends(), ", ")))
	fs.BoolVar(&o.cegar, "cegar", false, "add truth table rows lazily, from counterexamples")
	fs.BoolVar(&o.fence, "fence", false, "search by fences, so the chain found is depth-optimal for its size")
	fs.IntVarP(&o.workers, "workers", "j", 1, "number of parallel workers of the fence search")
	fs.IntVar(&o.initialSteps, "initial-steps", 1, "size the search starts at")
	fs.IntVar(&o.maxSteps, "max-steps", 0, "size ceiling (0 for the family default)")
	fs.DurationVar(&o.budget, "budget", 0, "soft timeout of each solver call (0 for none, not enforced by the gophersat backend)")
	fs.DurationVar(&o.attemptBudget, "attempt-budget", 100*time.Millisecond, "length of a solver call in the parallel fence search")
	fs.BoolVar(&o.noAlonce, "no-alonce", false, "do not require every step to be used")
	fs.BoolVar(&o.noColex, "no-colex", false, "do not order steps colexicographically")
	fs.BoolVar(&o.relaxed, "relaxed", false, "allow two constant and two equal fanins (needed by maj5 on few inputs)")
	fs.BoolVar(&o.verify, "verify", false, "check the chain found with a SAT miter")
}

func addInputFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVar(&o.specFile, "spec", "", "YAML specification file")
	fs.StringArrayVarP(&o.exprs, "expr", "e", nil, "output formula, e.g. 'maj(a, b, not(c))' (repeatable)")
	fs.StringSliceVar(&o.inputs, "inputs", nil, "input names of the formulas, in order (defaults to order of appearance)")
	fs.IntVarP(&o.nbInputs, "nb-inputs", "n", 0, "number of inputs of hexadecimal truth tables (inferred from their length if 0)")
}

// buildSpec reads the specification from exactly one of the sources the flags allow.
func (o *options) buildSpec(fs *pflag.FlagSet, args []string) (*spec.Spec, error) {
	var (
		s   *spec.Spec
		err error
	)
	switch {
	case o.specFile != "":
		if len(o.exprs) != 0 || len(args) != 0 {
			return nil, errors.New("--spec cannot be combined with other functions")
		}
		s, err = loadSpec(o.specFile)
	case len(o.exprs) != 0:
		if len(args) != 0 {
			return nil, errors.New("--expr cannot be combined with truth tables")
		}
		s, err = spec.FromExprs(o.inputs, o.exprs...)
	case len(args) != 0:
		s, err = hexSpec(o.nbInputs, args)
	default:
		return nil, errors.New("no function to synthesize")
	}
	if err != nil {
		return nil, err
	}
	if fs.Changed("initial-steps") {
		s.InitialSteps = o.initialSteps
	}
	if fs.Changed("budget") {
		s.Budget = o.budget
	}
	return s, s.Validate()
}

func loadSpec(path string) (*spec.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %q", path)
	}
	defer f.Close()
	s, err := spec.Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load %q", path)
	}
	return s, nil
}

func hexSpec(n int, hexes []string) (*spec.Spec, error) {
	fs := make([]tt.TT, len(hexes))
	for i, h := range hexes {
		h = strings.TrimPrefix(h, "0x")
		nb := n
		if nb == 0 {
			nb = inferInputs(h)
			if nb == 0 {
				return nil, errors.Errorf("cannot infer the number of inputs of %q, use --nb-inputs", h)
			}
		}
		f, err := tt.FromHex(nb, h)
		if err != nil {
			return nil, err
		}
		fs[i] = f
	}
	s := spec.New(fs...)
	s.InputNames = spec.DefaultNames(s.NbInputs)
	return s, nil
}

// inferInputs returns n such that a truth table over n >= 2 inputs has len(h) digits, or 0.
func inferInputs(h string) int {
	rows := 4 * len(h)
	for n := 2; 1<<uint(n) <= rows; n++ {
		if 1<<uint(n) == rows {
			return n
		}
	}
	return 0
}

func (o *options) searchOptions(logger logrus.FieldLogger) (synth.Options, error) {
	family, ok := gate.Lookup(o.family)
	if !ok {
		return synth.Options{}, errors.Errorf("unknown gate family %q (available: %s)", o.family, strings.Join(gate.Names(), ", "))
	}
	backend, err := sat.Lookup(o.backend)
	if err != nil {
		return synth.Options{}, err
	}
	enc := encoder.DefaultOptions(family)
	enc.AtLeastOnce = !o.noAlonce
	enc.Colex = enc.Colex && !o.noColex
	if o.relaxed {
		enc.TwoConst, enc.TwoEqual = true, true
	}
	return synth.Options{
		Family:        family,
		Backend:       backend,
		Encoder:       &enc,
		CEGAR:         o.cegar,
		Fence:         o.fence,
		Workers:       o.workers,
		MaxSteps:      o.maxSteps,
		AttemptBudget: o.attemptBudget,
		Verify:        o.verify,
		Logger:        logger,
	}, nil
}

// recording wraps a factory so that the last solver it creates records its clauses.
type recording struct {
	inner sat.Factory
	mu    sync.Mutex
	last  *sat.Recorder
}

func (r *recording) new() sat.Solver {
	rec := sat.NewRecorder(r.inner())
	r.mu.Lock()
	r.last = rec
	r.mu.Unlock()
	return rec
}

func (r *recording) write(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return errors.New("no encoding was sent to a solver")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %q", path)
	}
	if err := r.last.WriteDIMACS(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "could not write %q", path)
	}
	return f.Close()
}

func (o *options) run(ctx context.Context, w io.Writer, logger *logrus.Logger, s *spec.Spec) error {
	opts, err := o.searchOptions(logger)
	if err != nil {
		return err
	}
	var rec *recording
	if o.dimacs != "" {
		rec = &recording{inner: opts.Backend}
		opts.Backend = rec.new
	}
	var reg *prometheus.Registry
	if o.metrics {
		reg = prometheus.NewRegistry()
		opts.Metrics = metrics.New(reg)
	}

	if o.enumerate > 0 {
		err = o.enumerateChains(ctx, w, s, opts)
	} else {
		err = o.synthesize(ctx, w, s, opts)
	}
	if err != nil {
		return err
	}

	if rec != nil {
		if err := rec.write(o.dimacs); err != nil {
			return err
		}
		logger.WithField("file", o.dimacs).Info("encoding written")
	}
	if reg != nil {
		mfs, err := reg.Gather()
		if err != nil {
			return errors.Wrap(err, "could not gather metrics")
		}
		fmt.Fprintln(w)
		printMetrics(w, mfs)
	}
	return nil
}

func (o *options) synthesize(ctx context.Context, w io.Writer, s *spec.Spec, opts synth.Options) error {
	res, err := synth.Synthesize(ctx, s, opts)
	if err != nil {
		return err
	}
	if err := o.checkFormulas(s, res.Chain); err != nil {
		return err
	}
	fmt.Fprintf(w, "c %s search, %d attempts\n", res.Strategy, len(res.Attempts))
	if res.Fence != nil {
		fmt.Fprintf(w, "c fence %v\n", res.Fence)
	}
	printChain(w, s, res.Chain)
	return nil
}

func (o *options) enumerateChains(ctx context.Context, w io.Writer, s *spec.Spec, opts synth.Options) error {
	e, err := synth.NewEnumerator(s, opts)
	if err != nil {
		return err
	}
	for i := 0; i < o.enumerate; i++ {
		c, err := e.Next(ctx)
		if errors.Cause(err) == synth.ErrExhausted {
			break
		}
		if err != nil {
			return err
		}
		if err := o.checkFormulas(s, c); err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "c chain %d\n", i+1)
		printChain(w, s, c)
	}
	return nil
}

// checkFormulas checks c against the formulas it was synthesized from, if any.
func (o *options) checkFormulas(s *spec.Spec, c *chain.Chain) error {
	if !o.verify || len(o.exprs) == 0 {
		return nil
	}
	got := expr.FromChain(c, s.InputNames)
	for h, str := range o.exprs {
		want, err := expr.ParseString(str)
		if err != nil {
			return err
		}
		if !expr.Equivalent(got[h], want) {
			return errors.Wrapf(synth.ErrVerification, "output %d is %v, not %v", h+1, got[h], want)
		}
	}
	return nil
}

func printChain(w io.Writer, s *spec.Spec, c *chain.Chain) {
	fmt.Fprintf(w, "c %d steps, depth %d\n", c.Size(), c.Depth())
	fmt.Fprint(w, c.String())
	names := s.InputNames
	if len(names) != s.NbInputs {
		names = nil
	}
	for h, f := range expr.FromChain(c, names) {
		name := fmt.Sprintf("y%d", h+1)
		if h < len(s.OutputNames) && s.OutputNames[h] != "" {
			name = s.OutputNames[h]
		}
		fmt.Fprintf(w, "c %s = %v\n", name, f)
	}
}

func printMetrics(w io.Writer, mfs []*dto.MetricFamily) {
	sort.Slice(mfs, func(i, j int) bool { return mfs[i].GetName() < mfs[j].GetName() })
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			name := mf.GetName() + labels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "c %s %g\n", name, m.GetCounter().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Fprintf(w, "c %s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}

func labels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	strs := make([]string, len(pairs))
	for i, p := range pairs {
		strs[i] = fmt.Sprintf("%s=%q", p.GetName(), p.GetValue())
	}
	return "{" + strings.Join(strs, ",") + "}"
}
