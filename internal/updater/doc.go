// Package updater owns the docset update cycle.
//
// Ownership boundary:
// - updater contract and registry primitives
// - version discovery sources (git tags, tracked files)
// - build execution and archive staging
//
// Updaters do not generate docset content; each product's build command
// does that.
package updater
