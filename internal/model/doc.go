// Package model defines the data structures shared by the lookup engine.
//
// The main types are:
//   - Subject: a validated, immutable lookup request (email, username or image)
//   - Finding: one platform where the subject was observed
//   - Report: the immutable result of a lookup, including summary counts,
//     per-probe errors and the optional email/image/breach signals
//
// Models live in their own package so that probe, pipeline and report can
// share them without import cycles. Every type here serializes to JSON with
// stable field names.
package model
