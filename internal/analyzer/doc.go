// Package analyzer extracts heuristic accessibility, SEO, link, content and
// performance signals from an HTML document.
//
// Analysis is a pure function of the markup: no I/O, no clock, no randomness.
// Analyzing byte-identical input twice yields byte-identical JSON.
package analyzer
