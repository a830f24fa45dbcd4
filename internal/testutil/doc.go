// Package testutil provides shared test helpers for typeinfo packages.
package testutil
