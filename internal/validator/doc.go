// Package validator checks run configurations before they reach the training
// program. It is opt-in: the launcher only calls it for `validate` and
// `run --strict`, otherwise arguments are passed through untouched.
//
// Field names in errors are the flag names (lr, val_split, ...), taken from
// the mapstructure tags.
package validator
