// Package testsupport provides shared helpers for package tests: per-test
// configs backed by temp directories, store construction with cleanup, and
// book fixtures.
package testsupport
