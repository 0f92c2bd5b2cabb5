// Package all wires every storage backend into a binary with one blank
// import. Commands import it for side effects only.
package all

import (
	_ "medallion/internal/storage/postgres"
	_ "medallion/internal/storage/sqlite"
)
