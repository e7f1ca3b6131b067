// Package model defines the core data structures shared across politewalk.
//
// The types here are plain values with no behavior beyond construction and
// formatting helpers. Components communicate by passing these values rather
// than sharing mutable state, which keeps the single-threaded crawl loop
// easy to reason about and test.
package model
