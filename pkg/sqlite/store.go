// Package sqlite provides the public constructor for the SQLite project
// store while keeping the implementation internal.
package sqlite

import (
	"github.com/AndrewLang/matrix-codex-flow/internal/sqlite"
	"github.com/AndrewLang/matrix-codex-flow/pkg/types"
)

// Open opens, creating and migrating as needed, the store kept in
// cfg.DataDir. Errors are *types.StoreError of kind KindInit.
//
// Example:
//
//	store, err := sqlite.Open(types.Config{DataDir: dataDir})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	project, err := store.LoadOrCreateProjectByPath("/home/me/proj")
func Open(cfg types.Config) (types.ProjectStore, error) {
	s, err := sqlite.Open(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
