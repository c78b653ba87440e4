// Package textutil normalizes identifiers and labels before they reach the
// filesystem or the terminal.
package textutil
