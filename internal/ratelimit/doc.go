// Package ratelimit paces outbound requests with jittered delays.
//
// The Limiter is a synchronous pacing gate, not a scheduler: each call to
// Wait blocks the single crawl flow for a duration drawn uniformly from
// [MinDelay, MaxDelay]. Randomizing the pause avoids the metronome-like
// timing that makes crawler traffic trivial to fingerprint.
//
// # Known limitation
//
// Each Wait call is independent; there is no token bucket or accumulated
// budget. A sustained run with short delays can therefore exceed an
// advisory requests-per-minute figure, because no global request count is
// enforced. This is intentional simplicity: the delays themselves are the
// politeness mechanism.
package ratelimit
