package sqlite

import (
	"github.com/msivakumar/duetrack/internal/service/backup"
	"github.com/msivakumar/duetrack/internal/service/collection"
	"github.com/msivakumar/duetrack/internal/service/roster"
	"github.com/msivakumar/duetrack/internal/service/settings"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ roster.Repo       = (*Store)(nil)
	_ roster.Writer     = (*Store)(nil)
	_ collection.Repo   = (*Store)(nil)
	_ collection.Writer = (*Store)(nil)
	_ backup.Repo       = (*Store)(nil)
	_ backup.Writer     = (*Store)(nil)
	_ settings.Repo     = (*Store)(nil)
	_ settings.Writer   = (*Store)(nil)
)
