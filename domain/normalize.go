package domain

import "golang.org/x/text/cases"

var foldCaser = cases.Fold()

// Normalize case-folds a user name or email into its lookup form. Upstream
// identity layers usually normalize before calling the store; this helper
// keeps direct callers consistent with them.
func Normalize(s string) string {
	return foldCaser.String(s)
}
