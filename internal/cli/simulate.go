package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/centraunit/scopetree"
	"github.com/centraunit/scopetree/lifecycle"
	"github.com/centraunit/scopetree/presenter"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	Events string
	Until  string
	Plain  bool
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a lifecycle stream and report when bound producers are cancelled",
		Long: `Drive a lifecycle stream through a sequence of events. After every event a
new producer is bound to the stream, either to the corresponding teardown
event or, with --until, to a fixed event. The report shows which event
cancelled each producer.

Examples:
  scopetree simulate --events START,RESUME,PAUSE,STOP
  scopetree simulate --events START,RESUME,PAUSE --until PAUSE`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Events, "events", "e", "START,RESUME,PAUSE,STOP", "comma-separated lifecycle events")
	cmd.Flags().StringVarP(&opts.Until, "until", "u", "", "bind every producer until this event instead of its corresponding event")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "print without colors")

	return cmd
}

func runSimulate(rootOpts *RootOptions, opts *SimulateOptions, cmd *cobra.Command) error {
	cfg := rootOpts.Config()

	events, err := ParseEvents(opts.Events)
	if err != nil {
		return err
	}
	table, err := cfg.Lifecycle.BuildTable()
	if err != nil {
		return err
	}
	sim := &Simulation{Table: table, Logger: rootOpts.Logger()}
	if opts.Until != "" {
		if sim.Until, err = lifecycle.ParseEvent(opts.Until); err != nil {
			return err
		}
	}

	report, err := sim.Run(cmd.Context(), events)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), !opts.Plain)
}

// ParseEvents splits a comma-separated list of lifecycle event names.
func ParseEvents(s string) ([]lifecycle.Event, error) {
	var events []lifecycle.Event
	for _, part := range strings.Split(s, ",") {
		e, err := lifecycle.ParseEvent(part)
		if err != nil {
			return nil, fmt.Errorf("invalid --events %q: %w", s, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// Simulation drives a presenter's lifecycle and binds one idle producer
// after every event.
type Simulation struct {
	Table lifecycle.Table
	// Until, when set, binds producers with BindUntil instead of BindLifecycle.
	Until  lifecycle.Event
	Logger *slog.Logger
}

// ProducerResult records how one bound producer ended.
type ProducerResult struct {
	Name    string
	BoundAt lifecycle.Event
	// EndedAt is the event that cancelled the producer, or "close".
	EndedAt string
	Cause   error
	Err     error
}

// Report is the outcome of a simulation.
type Report struct {
	Trace     []string
	Producers []ProducerResult
}

type simulationScreen string

func (s simulationScreen) ScopeName() string { return string(s) }

func (simulationScreen) Componentless() {}

func idleProducer(ctx context.Context, _ func(int) bool) error {
	<-ctx.Done()
	return ctx.Err()
}

type running struct {
	result ProducerResult
	sub    *lifecycle.Subscription[int]
	ended  bool
}

// Run emits events in order, then closes the owner.
func (s *Simulation) Run(ctx context.Context, events []lifecycle.Event) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	table := s.Table
	if table == nil {
		table = lifecycle.DefaultTable()
	}

	mgr, err := scopetree.NewManager(scopetree.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	owner, err := presenter.New(mgr, nil, simulationScreen("Simulation"),
		presenter.WithTable(table),
		presenter.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var live []*running
	sweep := func(at string) {
		for _, r := range live {
			if r.ended || r.sub.Context().Err() == nil {
				continue
			}
			r.ended = true
			r.result.EndedAt = at
			r.result.Cause = context.Cause(r.sub.Context())
			report.Trace = append(report.Trace, fmt.Sprintf("  %s cancelled: %v", r.result.Name, r.result.Cause))
		}
	}

	for i, e := range events {
		if err := emit(owner, e); err != nil {
			owner.Close()
			return nil, fmt.Errorf("emit %s: %w", e, err)
		}
		report.Trace = append(report.Trace, "emit "+e.String())
		sweep(e.String())

		r := &running{result: ProducerResult{Name: fmt.Sprintf("producer#%d", i+1), BoundAt: e}}
		if s.Until != "" {
			r.sub = presenter.BindUntil(ctx, owner, s.Until, idleProducer)
		} else {
			r.sub = presenter.BindLifecycle(ctx, owner, idleProducer)
		}
		live = append(live, r)
		report.Trace = append(report.Trace, "  bind "+r.result.Name)
		sweep(e.String())
	}

	owner.Close()
	report.Trace = append(report.Trace, "close")
	sweep("close")

	var wg conc.WaitGroup
	for _, r := range live {
		wg.Go(func() {
			r.result.Err = r.sub.Err()
		})
	}
	wg.Wait()

	for _, r := range live {
		report.Producers = append(report.Producers, r.result)
	}
	logger.Debug("simulation finished", "events", len(events), "producers", len(live))
	return report, nil
}

func emit(p *presenter.Presenter, e lifecycle.Event) error {
	switch e {
	case lifecycle.Create:
		return p.Create()
	case lifecycle.Start:
		return p.Start()
	case lifecycle.Resume:
		return p.Resume()
	case lifecycle.Pause:
		return p.Pause()
	case lifecycle.Stop:
		return p.Stop()
	default:
		return p.Lifecycle().Emit(e)
	}
}

// Write prints the trace followed by a per-producer summary.
func (r *Report) Write(w io.Writer, styled bool) error {
	render := func(style interface{ Render(...string) string }, s string) string {
		if !styled {
			return s
		}
		return style.Render(s)
	}

	var sb strings.Builder
	for _, line := range r.Trace {
		switch {
		case strings.HasPrefix(line, "emit "), line == "close":
			sb.WriteString(render(eventStyle, line))
		case strings.Contains(line, " cancelled: "):
			sb.WriteString(render(cancelStyle, line))
		default:
			sb.WriteString(line)
		}
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	sb.WriteString(render(headerStyle, "summary"))
	sb.WriteByte('\n')
	for _, p := range r.Producers {
		fmt.Fprintf(&sb, "%-12s bound at %-8s ended at %s", p.Name, p.BoundAt, p.EndedAt)
		if p.Err != nil {
			fmt.Fprintf(&sb, " (error: %v)", p.Err)
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
