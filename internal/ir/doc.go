// Package ir provides the value model shared by every blockdoc package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Block data is an IRObject; a nil IRObject is a cleared block (null)
//   - No float kind; numbers are int64
//   - Canonical JSON (RFC 8785) is the only encoding that feeds a hash
//   - Ordering lives in the layout, never in map iteration
package ir
