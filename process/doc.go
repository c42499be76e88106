// Package process runs host subprocesses for the bingen toolchain.
//
// A [Runner] executes a single [Spec] and reports a [Result] carrying the
// exit code and captured output. A non-zero exit is not an error at this
// layer: callers decide how to surface it. Errors from Run mean the process
// could not be started, or the context ended first.
//
// [Chain] connects several specs so the stdout of each stage feeds the
// stdin of the next. Runners that also implement [Piper] stream the stages
// concurrently through OS pipes; any other runner is driven one stage at a
// time with the intermediate output buffered in memory.
package process
