package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/metrics"
	"github.com/yegorkir/aqs/internal/replay"
	"github.com/yegorkir/aqs/internal/session"
	"github.com/yegorkir/aqs/internal/state"
	"github.com/yegorkir/aqs/internal/stop"
)

const consoleHelp = `Answer with an option number, a slider value, or for safety questions a
comma-separated list of option ids (tri-state: id=line,id=veil).
Commands: :result  :continue  :focus axis|module|mode <id>  :priority <axis> <tier>
          :safety  :share  :debug  :quit`

type runOptions struct {
	metrics bool
	share   bool
}

func newRunCmd(a *app) *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Take the questionnaire in the terminal (answers may also be piped in)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			interactive := false
			if f, ok := in.(*os.File); ok {
				interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
			}
			return runSession(in, cmd.OutOrStdout(), a, o, interactive)
		},
	}
	cmd.Flags().BoolVar(&o.metrics, "metrics", false, "print session metrics in Prometheus text format on exit")
	cmd.Flags().BoolVar(&o.share, "share", false, "print the share payload as JSON on exit")
	return cmd
}

// #region session

func runSession(in io.Reader, out io.Writer, a *app, o runOptions, interactive bool) (err error) {
	cat, err := replay.LoadCatalogue(a.cfg.Bundle)
	if err != nil {
		return err
	}
	j, err := a.openJournal()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := j.Close(); err == nil {
			err = cerr
		}
	}()

	reg := prometheus.NewRegistry()
	opts := session.Options{
		Journal: j,
		Metrics: metrics.New(reg),
		Logger:  a.log,
	}
	if a.cfg.Seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(a.cfg.Seed, a.cfg.Seed))
	}
	e, err := session.New(cat, opts)
	if err != nil {
		return err
	}
	a.log.Info("session started", zap.String("session", e.SessionID()), zap.String("bundle", a.cfg.Bundle))

	c := &console{
		e:           e,
		cat:         cat,
		in:          bufio.NewScanner(in),
		out:         out,
		interactive: interactive,
		debug:       a.cfg.Debug,
	}
	if err := c.loop(); err != nil {
		return err
	}

	if o.share {
		if err := writeJSON(out, e.SharePayload()); err != nil {
			return err
		}
	}
	if o.metrics {
		if err := writeMetrics(out, reg); err != nil {
			return err
		}
	}
	return nil
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// #endregion session

// #region console

// console is the line-oriented front end. Prompts are only printed when
// the input is a terminal.
type console struct {
	e           *session.Engine
	cat         *catalog.Catalogue
	in          *bufio.Scanner
	out         io.Writer
	interactive bool
	debug       bool
}

var errQuit = errors.New("quit")

func (c *console) loop() error {
	fmt.Fprintln(c.out, "Adaptive questionnaire ready.")
	if c.interactive {
		fmt.Fprintln(c.out, consoleHelp)
	}
	c.e.Start()

	for {
		var err error
		switch c.e.Phase() {
		case state.PhaseProposeResult:
			err = c.proposed()
		case state.PhaseResult:
			err = c.result()
		default:
			err = c.question()
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (c *console) read() (string, error) {
	if c.interactive {
		fmt.Fprint(c.out, "> ")
	}
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *console) proposed() error {
	d, _ := c.e.LastStop()
	fmt.Fprintf(c.out, "\nThe profile looks defined (%s). [r]esult or [c]ontinue?\n", d.Reason())
	line, err := c.read()
	if err != nil {
		return err
	}
	switch {
	case line == "r" || line == ":result":
		_, err = c.e.ShowResult(false)
	case line == "c" || line == ":continue":
		_, err = c.e.Continue()
	default:
		err = c.command(line)
	}
	return err
}

func (c *console) result() error {
	c.printResult()
	fmt.Fprintln(c.out, "[c]ontinue, :focus, :safety or :quit")
	line, err := c.read()
	if err != nil {
		return err
	}
	if line == "c" {
		line = ":continue"
	}
	return c.command(line)
}

func (c *console) question() error {
	q, p, ok := c.e.Current()
	if !ok {
		fmt.Fprintln(c.out, "\nNo more questions.")
		_, err := c.e.ShowResult(true)
		return err
	}
	c.printQuestion(q, p)
	if c.debug {
		c.printDebug()
	}

	line, err := c.read()
	if err != nil {
		return err
	}
	if strings.HasPrefix(line, ":") {
		return c.command(line)
	}
	ans, err := parseAnswer(q, line)
	if err != nil {
		fmt.Fprintf(c.out, "  %v\n", err)
		return nil
	}
	ans.At = time.Now().UTC()

	out, err := c.e.Answer(ans)
	if errors.Is(err, session.ErrAlreadyAnswered) {
		fmt.Fprintf(c.out, "  %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	if out.Followup != nil {
		fmt.Fprintf(c.out, "  (followup queued: %s)\n", out.Followup.QID)
	}
	if out.FocusExit != nil {
		fmt.Fprintf(c.out, "  (focus on %s %s ended: %s)\n", out.FocusExit.Kind, out.FocusExit.ID, out.FocusExit.Reason)
	}
	return nil
}

func (c *console) command(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	var err error
	ok := true
	switch fields[0] {
	case ":quit", ":q":
		return errQuit
	case ":result":
		ok, err = c.e.ShowResult(true)
	case ":continue":
		ok, err = c.e.Continue()
	case ":safety":
		ok, err = c.e.EditSafety()
	case ":focus":
		if len(fields) != 3 {
			ok = false
			break
		}
		ok, err = c.e.EnterFocus(state.FocusKind(fields[1]), fields[2])
	case ":priority":
		if len(fields) != 3 {
			ok = false
			break
		}
		tier, perr := strconv.Atoi(fields[2])
		if perr != nil {
			ok = false
			break
		}
		ok, err = c.e.SetAxisPriority(fields[1], tier)
	case ":share":
		err = writeJSON(c.out, c.e.SharePayload())
	case ":debug":
		c.debug = !c.debug
	default:
		ok = false
	}
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(c.out, "  cannot %s\n", line)
	}
	return nil
}

// #endregion console

// #region render

func (c *console) printQuestion(q *catalog.Question, p catalog.Presented) {
	fmt.Fprintf(c.out, "\n%s\n", p.Prompt)
	if p.Help != "" {
		fmt.Fprintf(c.out, "  %s\n", p.Help)
	}
	switch b := q.Body.(type) {
	case *catalog.ChoiceBody:
		for i, o := range b.Options {
			fmt.Fprintf(c.out, "  %d) %s\n", i+1, labelOr(p.OptionLabels[o.ID], o.ID))
		}
	case *catalog.SliderBody:
		fmt.Fprintf(c.out, "  %g (%s) .. %g (%s)\n", b.Min, p.MinLabel, b.Max, p.MaxLabel)
	case *catalog.SafetyBody:
		for _, o := range b.Options {
			fmt.Fprintf(c.out, "  %s: %s\n", o.ID, labelOr(p.OptionLabels[o.ID], o.ID))
		}
		if b.TriState {
			fmt.Fprintln(c.out, "  mark each as id=line or id=veil; unmarked is ok")
		}
	}
}

func (c *console) printDebug() {
	d := c.e.Debug()
	fmt.Fprintf(c.out, "  [debug] candidates=%d forced=%t", d.Count, d.FollowupForced)
	if d.Margin != nil {
		fmt.Fprintf(c.out, " margin=%.3f", *d.Margin)
	}
	if d.Priority != nil {
		fmt.Fprintf(c.out, " priority=tier%d", d.Priority.Tier)
	}
	fmt.Fprintln(c.out)
	for _, cand := range d.Top {
		fmt.Fprintf(c.out, "    %-20s total=%.3f base=%.3f prior=%.3f penalty=%.3f\n",
			cand.QID, cand.Score.Total, cand.Score.Base, cand.Score.PriorGain, cand.Score.Penalty)
	}
}

func (c *console) printResult() {
	st := c.e.State()
	fmt.Fprintln(c.out, "\nResult")
	for _, ax := range c.cat.Axes() {
		s := st.Axes[ax.ID]
		fmt.Fprintf(c.out, "  %-20s score=%+.2f confidence=%.2f (%s)\n",
			labelOr(ax.Label, ax.ID), s.Score, s.Confidence, stop.Bucket(s.Confidence))
	}
	for _, m := range c.cat.Modules() {
		s := st.Modules[m.ID]
		fmt.Fprintf(c.out, "  %-20s level=%d confidence=%.2f (%s)\n",
			labelOr(m.Label, m.ID), s.Level, s.Confidence, stop.Bucket(s.Confidence))
	}
	for _, m := range c.cat.Modes() {
		fmt.Fprintf(c.out, "  %-20s %s\n", labelOr(m.Label, m.ID), st.Modes[m.ID])
	}
	if len(st.Tags) > 0 {
		fmt.Fprintf(c.out, "  tags: %s\n", strings.Join(st.Tags, ", "))
	}
}

func labelOr(label, id string) string {
	if label != "" {
		return label
	}
	return id
}

// #endregion render

// #region parse

// parseAnswer reads one answer line for q.
func parseAnswer(q *catalog.Question, line string) (state.Answer, error) {
	ans := state.Answer{QID: q.ID}
	switch b := q.Body.(type) {
	case *catalog.ChoiceBody:
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(b.Options) {
			return ans, fmt.Errorf("choose 1..%d", len(b.Options))
		}
		ans.OptionID = b.Options[n-1].ID
	case *catalog.SliderBody:
		v, err := strconv.ParseFloat(line, 64)
		if err != nil || v < b.Min || v > b.Max {
			return ans, fmt.Errorf("enter a number in %g..%g", b.Min, b.Max)
		}
		ans.Value = v
	case *catalog.SafetyBody:
		known := map[string]bool{}
		for _, o := range b.Options {
			known[o.ID] = true
		}
		for _, item := range strings.Split(line, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			id, level, hasLevel := strings.Cut(item, "=")
			if !known[id] {
				return ans, fmt.Errorf("unknown option %q", id)
			}
			if !b.TriState {
				ans.Selections = append(ans.Selections, id)
				continue
			}
			lv := state.LevelLine
			if hasLevel {
				lv = state.SafetyLevel(level)
			}
			if lv != state.LevelOK && lv != state.LevelVeil && lv != state.LevelLine {
				return ans, fmt.Errorf("level must be ok, veil or line, got %q", level)
			}
			if ans.Levels == nil {
				ans.Levels = map[string]state.SafetyLevel{}
			}
			ans.Levels[id] = lv
		}
		if b.TriState && ans.Levels == nil {
			ans.Levels = map[string]state.SafetyLevel{}
		}
	}
	return ans, nil
}

// #endregion parse
