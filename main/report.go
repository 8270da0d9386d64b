package main

import (
	"fmt"
	"io"

	"github.com/flosch/pongo2/v5"

	"spinlock/common/lock"
)

const reportTemplate = `spinstress report
{% for r in runs %}
[{{ r.Kind }}] run {{ r.RunID }}
  workers     {{ r.Workers }}
  iterations  {{ r.Iterations }}
  counter     {{ r.Got }} / {{ r.Expected }} {% if r.OK %}ok{% else %}LOST UPDATES{% endif %}
  elapsed     {{ r.Elapsed }} ({{ r.PerOp }}/op)
{% endfor %}{% if probe %}
exclusion probe: held {{ probe.Hold }}, contender waited {{ probe.Waited }} {% if probe.Blocked %}ok{% else %}ACQUIRED WHILE HELD{% endif %}
{% endif %}{% if counts %}
observer: acquired={{ counts.Acquired }} releasing={{ counts.Releasing }}
{% endif %}`

var reportTpl = pongo2.Must(pongo2.FromString(reportTemplate))

type report struct {
	Runs   []Result
	Probe  *Probe
	Counts *lock.LockCounts
}

// render flattens everything to strings and bools first; the template only
// prints.
func (rp report) render(w io.Writer) error {
	runs := make([]pongo2.Context, 0, len(rp.Runs))
	for _, r := range rp.Runs {
		runs = append(runs, pongo2.Context{
			"Kind":       r.Kind,
			"RunID":      r.RunID,
			"Workers":    r.Workers,
			"Iterations": r.Iterations,
			"Got":        r.Got,
			"Expected":   r.Expected,
			"OK":         r.OK(),
			"Elapsed":    r.Elapsed.String(),
			"PerOp":      r.PerOp().String(),
		})
	}
	ctx := pongo2.Context{"runs": runs}
	if rp.Probe != nil {
		ctx["probe"] = pongo2.Context{
			"Hold":    rp.Probe.Hold.String(),
			"Waited":  rp.Probe.Waited.String(),
			"Blocked": rp.Probe.Blocked,
		}
	}
	if rp.Counts != nil {
		ctx["counts"] = pongo2.Context{
			"Acquired":  rp.Counts.Acquired,
			"Releasing": rp.Counts.Releasing,
		}
	}
	if err := reportTpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func (rp report) ok() bool {
	for _, r := range rp.Runs {
		if !r.OK() {
			return false
		}
	}
	return rp.Probe == nil || rp.Probe.Blocked
}
