// Package peakfit fits parametric peak models to spectra, images, and
// image cubes.
//
// Responsibilities: parameter vector schemas driven by the model
// configuration flags, peak model evaluation (separable 1D-shape products,
// generic 2D shapes, and multimode Laguerre-Gauss beam intensities),
// moment-based initial guesses, and the bounded fit drivers for single
// peaks, multi-peak spectra, and per-pixel cube batches.
//
// The iterative solver lives in internal/lsq; mode profiles live in
// internal/lgbeam. This package owns everything between raw data and a
// decoded, annotated fit result.
package peakfit
