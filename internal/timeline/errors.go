package timeline

import "github.com/ansel1/merry/v2"

// Mutations fall into two failure classes: structurally invalid input is
// rejected with ErrInvalid (or the more specific ErrCycle) and leaves the
// document untouched, while references to ids that no longer exist are silent
// no-ops so UI events can race with removal without blowing up.
var (
	ErrInvalid = merry.Sentinel("invalid timeline mutation")
	ErrCycle   = merry.Sentinel("parent assignment would create a cycle")
)

func invalidf(format string, args ...any) error {
	return merry.Wrap(ErrInvalid, merry.AppendMessagef(format, args...))
}
