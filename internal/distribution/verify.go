package distribution

import (
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/consistency"
)

// =============================================================================
// Port Verification
// =============================================================================

// CheckPorts runs the consistency checker over the distribution's pipeline
// and loaded documents. The error is non-nil when a pipeline connector URL
// carries an unparseable port; mismatches go into the report.
func (d *Distribution) CheckPorts() (*consistency.Report, error) {
	report, err := consistency.Check(d.Pipeline, d.Docs)
	if err != nil {
		return nil, NewError(d.Name, "check ports", err)
	}
	return report, nil
}

// CheckPortsAll verifies every distribution under root and returns the
// per-distribution reports keyed by name. Distributions that fail to load
// or to check are returned in the error map instead.
func CheckPortsAll(root string) (map[string]*consistency.Report, map[string]error, error) {
	names, err := List(root)
	if err != nil {
		return nil, nil, err
	}

	reports := make(map[string]*consistency.Report, len(names))
	failures := map[string]error{}
	for _, name := range names {
		dist, err := FromName(root, name)
		if err != nil {
			failures[name] = err
			continue
		}
		report, err := dist.CheckPorts()
		if err != nil {
			failures[name] = err
			continue
		}
		reports[name] = report
	}
	return reports, failures, nil
}
