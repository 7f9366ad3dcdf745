// Package report turns diagnostics, spectra and constraint scans into named
// pass/fail checks and renders them as a plain-text summary.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/oshokin/photon-entanglement/internal/constraints"
	"github.com/oshokin/photon-entanglement/internal/domain/twolevel"
	"github.com/oshokin/photon-entanglement/internal/engine"
	"github.com/oshokin/photon-entanglement/internal/spectrum"
)

// Benchmark holds the thresholds the checks compare against.
type Benchmark struct {
	// MinEntropy is the smallest peak entropy, in nats, counted as entanglement.
	MinEntropy float64 `yaml:"min_entropy"`
	// EntropySlack is how far above ln 2 the peak entropy may go.
	EntropySlack float64 `yaml:"entropy_slack"`
	// MinConversion is the smallest peak conversion counted as mixing.
	MinConversion float64 `yaml:"min_conversion"`
	// MinCoherence is the smallest mean coherence counted as preserved.
	MinCoherence float64 `yaml:"min_coherence"`
	// MinViableFraction is the share of a constraint scan that must evade
	// every existing bound.
	MinViableFraction float64 `yaml:"min_viable_fraction"`
}

// DefaultBenchmark returns the reference thresholds. Entanglement needs a
// tenth of the maximal two-level entropy ln 2.
func DefaultBenchmark() Benchmark {
	return Benchmark{
		MinEntropy:        0.1 * engine.MaxEntropy,
		EntropySlack:      0.1,
		MinConversion:     0.01,
		MinCoherence:      0.01,
		MinViableFraction: 0.1,
	}
}

// Check is a single named verdict.
type Check struct {
	// Name is a short label.
	Name string
	// Detail shows the measured value.
	Detail string
	// Passed is the verdict.
	Passed bool
	// Advisory checks are reported but never fail their section.
	Advisory bool
}

// Section groups related checks under a title.
type Section struct {
	// Title names the section.
	Title string
	// Checks are rendered in order.
	Checks []Check
}

// Passed reports whether every non-advisory check passed.
func (s Section) Passed() bool {
	for _, c := range s.Checks {
		if !c.Advisory && !c.Passed {
			return false
		}
	}

	return true
}

// Passed reports whether every section passed.
func Passed(sections []Section) bool {
	for _, s := range sections {
		if !s.Passed() {
			return false
		}
	}

	return true
}

// EvaluateDynamics checks that the trajectory entangled the two states, stayed
// within physical bounds and converted a measurable share of photons.
func EvaluateDynamics(d *twolevel.Diagnostics, b Benchmark) Section {
	period := "undefined"
	if d.OscillationPeriod.Defined() {
		period = fmt.Sprintf("%.6g (%d peaks)", d.OscillationPeriod.Value, d.OscillationPeriod.Peaks)
	}

	checks := []Check{
		{
			Name:   "entanglement generated",
			Detail: fmt.Sprintf("max entropy %.4f > %.4f", d.MaxEntropy, b.MinEntropy),
			Passed: d.MaxEntropy > b.MinEntropy,
		},
		{
			Name:   "entropy bounded",
			Detail: fmt.Sprintf("max entropy %.4f <= ln2 + %.2f", d.MaxEntropy, b.EntropySlack),
			Passed: d.MaxEntropy <= engine.MaxEntropy+b.EntropySlack,
		},
		{
			Name:   "conversion observed",
			Detail: fmt.Sprintf("max conversion %.4g > %.4g", d.MaxConversion, b.MinConversion),
			Passed: d.MaxConversion > b.MinConversion,
		},
		{
			Name:   "probability conserved",
			Detail: fmt.Sprintf("max norm drift %.3g", d.MaxNormDrift),
			Passed: d.ProbabilityWithinBounds && d.EntropyWithinBounds && !d.HasWarnings(),
		},
		{
			Name:     "coherence preserved",
			Detail:   fmt.Sprintf("mean coherence %.4g > %.4g", d.MeanCoherence, b.MinCoherence),
			Passed:   d.MeanCoherence > b.MinCoherence,
			Advisory: true,
		},
		{
			Name:     "oscillation period",
			Detail:   period,
			Passed:   d.OscillationPeriod.Defined(),
			Advisory: true,
		},
	}

	for _, w := range d.Warnings {
		checks = append(checks, Check{
			Name:     "warning",
			Detail:   w.String(),
			Advisory: true,
		})
	}

	return Section{Title: "Entanglement dynamics", Checks: checks}
}

// EvaluateSpectra checks that the modification peaks at the strongest
// resonance and that the most strongly weighted channel responds the most.
func EvaluateSpectra(m spectrum.Model, sig spectrum.Signatures) Section {
	var strongest spectrum.Resonance
	for _, r := range m.Resonances {
		if r.Amplitude > strongest.Amplitude {
			strongest = r
		}
	}

	width := strongest.Width
	if width == 0 {
		width = 0.15 * strongest.Scale
	}

	checks := []Check{{
		Name:   "enhancement at resonance",
		Detail: fmt.Sprintf("peak at l=%.0f, strongest resonance l=%.0f", sig.EnhancementScale, strongest.Scale),
		Passed: math.Abs(sig.EnhancementScale-strongest.Scale) <= width,
	}}

	var (
		loudest    spectrum.Channel
		maxWeight  = math.Inf(-1)
		maxEnhance = math.Inf(-1)
		snr        = make([]string, 0, len(sig.Channels))
	)

	for _, c := range sig.Channels {
		if w := m.Weights[c.Channel]; w > maxWeight {
			maxWeight, loudest = w, c.Channel
		}

		maxEnhance = math.Max(maxEnhance, c.MaxEnhancement)
		snr = append(snr, fmt.Sprintf("%s %.3g", c.Channel, c.SNR))
	}

	if c, ok := sig.Channel(loudest); ok {
		checks = append(checks, Check{
			Name:   "weighted channel leads",
			Detail: fmt.Sprintf("%s max enhancement %.4g", loudest, c.MaxEnhancement),
			Passed: c.MaxEnhancement >= maxEnhance,
		})
	}

	checks = append(checks, Check{
		Name:     "detectable",
		Detail:   "SNR " + strings.Join(snr, ", "),
		Passed:   sig.Detectable,
		Advisory: true,
	})

	return Section{Title: "Polarization spectra", Checks: checks}
}

// EvaluateConstraints checks that a large enough viable region exists and
// that every conversion is a probability.
func EvaluateConstraints(res *constraints.Result, b Benchmark) Section {
	return Section{
		Title: "Parameter constraints",
		Checks: []Check{
			{
				Name:   "viable region",
				Detail: fmt.Sprintf("%.1f%% of %d points > %.1f%%", 100*res.ViableFraction, res.Points, 100*b.MinViableFraction),
				Passed: res.ViableFraction > b.MinViableFraction,
			},
			{
				Name:   "conversion bounded",
				Detail: fmt.Sprintf("max conversion %.4g", res.MaxConversion),
				Passed: res.MaxConversion >= 0 && res.MaxConversion <= 1,
			},
			{
				Name:     "detectable region",
				Detail:   fmt.Sprintf("%.1f%% of viable points", 100*res.DetectableFraction),
				Passed:   res.DetectableFraction > 0,
				Advisory: true,
			},
		},
	}
}

// Write renders the sections followed by the overall verdict.
func Write(w io.Writer, sections []Section) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	var passed, total int

	for _, s := range sections {
		fmt.Fprintf(tw, "== %s ==\n", s.Title)

		for _, c := range s.Checks {
			fmt.Fprintf(tw, "  [%s]\t%s\t%s\n", status(c), c.Name, c.Detail)

			if c.Advisory {
				continue
			}

			total++

			if c.Passed {
				passed++
			}
		}
	}

	verdict := "PASS"
	if !Passed(sections) {
		verdict = "FAIL"
	}

	fmt.Fprintf(tw, "Overall: %s (%d/%d checks)\n", verdict, passed, total)

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func status(c Check) string {
	switch {
	case c.Passed:
		return "PASS"
	case c.Advisory:
		return "INFO"
	default:
		return "FAIL"
	}
}
