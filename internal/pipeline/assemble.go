package pipeline

import (
	"cmp"
	"slices"

	"github.com/nao1215/identscan/internal/model"
	"github.com/nao1215/identscan/internal/probe"
)

// assemble builds the immutable report from the collected tier and signal
// slots. Only the accepted tier contributes findings.
func assemble(
	subject model.Subject,
	tierUsed int,
	accepted *tierRun,
	attempted []tierRun,
	signals []slot,
	overall *model.ProbeError,
) *model.Report {
	findings := make([]model.Finding, 0)
	if accepted != nil {
		for _, s := range accepted.slots {
			if s.cut {
				continue
			}
			findings = append(findings, Normalize(s.desc, accepted.index, subject.Value(), s.outcome)...)
		}
	}
	findings = Dedupe(findings)
	SortFindings(findings)

	report := &model.Report{
		Subject:  model.ReportSubject{Kind: subject.Kind(), Value: subject.Value()},
		TierUsed: tierUsed,
		Findings: findings,
		Errors:   collectErrors(attempted, signals, overall),
		Partial:  overall != nil,
	}

	var breachLists [][]model.Breach
	for _, s := range signals {
		if s.cut || s.outcome.Status != probe.StatusFound || s.outcome.Signals == nil {
			continue
		}
		sig := s.outcome.Signals
		breachLists = append(breachLists, sig.Breaches)
		if report.Email == nil && sig.Email != nil {
			email := *sig.Email
			report.Email = &email
		}
		if report.Image == nil && sig.Image != nil {
			image := *sig.Image
			report.Image = &image
		}
	}
	report.Breaches = MergeBreaches(breachLists...)

	report.Summary = Summarize(subject.Kind(), findings, report.Breaches)
	if subject.Kind() == model.KindImage {
		report.SocialProfiles = SocialProfiles(findings)
	}
	return report
}

// collectErrors lists tier failures ordered by tier and probe name, then
// signal failures by probe name, then the overall-timeout entry. Probes cut
// by the overall deadline are covered by that single entry.
func collectErrors(attempted []tierRun, signals []slot, overall *model.ProbeError) []model.ProbeError {
	errs := make([]model.ProbeError, 0)

	var tierErrs []model.ProbeError
	for _, run := range attempted {
		for _, s := range run.slots {
			if e, ok := probeError(s, run.index, false); ok {
				tierErrs = append(tierErrs, e)
			}
		}
	}
	slices.SortStableFunc(tierErrs, func(a, b model.ProbeError) int {
		if c := cmp.Compare(a.Tier, b.Tier); c != 0 {
			return c
		}
		return cmp.Compare(a.Probe, b.Probe)
	})

	var signalErrs []model.ProbeError
	for _, s := range signals {
		if e, ok := probeError(s, -1, true); ok {
			signalErrs = append(signalErrs, e)
		}
	}
	slices.SortStableFunc(signalErrs, func(a, b model.ProbeError) int {
		return cmp.Compare(a.Probe, b.Probe)
	})

	errs = append(errs, tierErrs...)
	errs = append(errs, signalErrs...)
	if overall != nil {
		errs = append(errs, *overall)
	}
	return errs
}

func probeError(s slot, tier int, signal bool) (model.ProbeError, bool) {
	if s.cut || s.outcome.Status != probe.StatusFailure || s.outcome.Failure == nil {
		return model.ProbeError{}, false
	}
	return model.ProbeError{
		Probe:  s.desc.Name,
		Tier:   tier,
		Signal: signal,
		Kind:   s.outcome.Failure.Kind,
		Detail: s.outcome.Failure.Detail,
	}, true
}
