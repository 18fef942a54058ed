package memory_test

import (
	"github.com/msivakumar/duetrack/internal/service/backup"
	"github.com/msivakumar/duetrack/internal/service/collection"
	"github.com/msivakumar/duetrack/internal/service/roster"
	"github.com/msivakumar/duetrack/internal/service/settings"

	"github.com/msivakumar/duetrack/internal/storage/memory"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ roster.Repo       = (*memory.Store)(nil)
	_ roster.Writer     = (*memory.Store)(nil)
	_ collection.Repo   = (*memory.Store)(nil)
	_ collection.Writer = (*memory.Store)(nil)
	_ backup.Repo       = (*memory.Store)(nil)
	_ backup.Writer     = (*memory.Store)(nil)
	_ settings.Repo     = (*memory.Store)(nil)
	_ settings.Writer   = (*memory.Store)(nil)
)
