// Package sanitizer normalizes request input before validation and storage.
//
// Every function is idempotent and never fails: input that cannot be
// normalized comes back as an empty string, which the validators then reject.
package sanitizer
