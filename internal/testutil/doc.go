// Package testutil provides shared test utilities for keysweep.
//
// # Fixtures
//
// The fixtures.go file provides sample configuration documents:
//
//   - SampleConfigYAML, SampleConfigTOML - the same settings in both formats
//   - SampleInvalidConfigYAML - a document that fails validation
//
// # Environment Helpers
//
// The env.go file provides test environment setup:
//
//   - WriteTestFile(t, dir, name, content) - writes a file in a test dir
//   - SetEnv(t, key, value) - sets an environment variable for one test
//
// # Assertions
//
// The assertions.go file provides domain assertions:
//
//   - AssertPermutation(t, min, max, values) - every value in range once
//   - AssertUnique(t, values) - no value repeated
//   - WaitFor(t, timeout, cond, msg) - polls until cond holds
//
// # Timeouts
//
// The timeout.go file provides deadline-aware contexts so that tests fail
// with a useful message instead of hitting the go test timeout.
package testutil
