// Package build renders every configured route of a site in one batch.
//
// A build runs bootstrap once, renders pages on a pool of workers through
// the page host (so the requestComplete hooks write them to disk), folds
// every page's errors and timings into the build context, and finally runs
// buildComplete. Hook failures never abort a build: they are counted and
// reported, and only turn into a returned error when build.fail_on_error is set.
package build
