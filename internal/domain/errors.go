package domain

import "errors"

// ErrValidation indicates that a request contains missing, unknown, or
// out-of-domain feature values. Surfaced before any model work runs.
var ErrValidation = errors.New("invalid estimate request")

// ErrModelUnavailable indicates that the model artifact failed to load.
// Fatal at process startup, never raised per request.
var ErrModelUnavailable = errors.New("model artifact unavailable")

// ErrExplainability indicates that the attribution computation failed.
// Non-fatal: the point estimate is still returned without contribution data.
var ErrExplainability = errors.New("contribution computation failed")

// ErrInterpretation indicates that the language-model interpretation path
// failed or timed out. Non-fatal: the deterministic fallback is substituted.
var ErrInterpretation = errors.New("interpretation generation failed")

// ErrInvalidContributionSet indicates that a contribution set violates its
// ordering, truncation, or magnitude invariants.
var ErrInvalidContributionSet = errors.New("invalid contribution set")

// ErrInvalidEnvelope indicates that a response envelope pairs a populated
// stage result with that stage's error string.
var ErrInvalidEnvelope = errors.New("invalid response envelope")
