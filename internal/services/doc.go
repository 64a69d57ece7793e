// Package services holds cross-cutting service plumbing: the error
// taxonomy used to classify failures at component boundaries, and
// context helpers for request correlation.
package services
