// Package pipeline runs lookups: it dispatches a subject's probes tier by
// tier, decides when to fall back, and assembles the final Report.
//
// The Orchestrator moves through SELECT_TIER, DISPATCH, COLLECT and
// EVALUATE for each tier until a tier is accepted or none remain. Probes of
// a tier run concurrently, bounded by the configured concurrency, and each
// owns its own result slot; the orchestrator reads the slots only after the
// join barrier. Signal probes (breach lookups, email and image metadata) run
// alongside the tiers under the same overall deadline.
//
// Only the accepted tier's findings are normalized and aggregated. Errors
// from every attempted tier and every signal probe are reported. Output is
// deterministic: identical probe outcomes produce identical reports.
//
// BatchRunner looks up many subjects of one kind with bounded concurrency.
package pipeline
