// Package all links every storage backend into the binary. Importing it
// for side effects registers the backends with the storage factory.
package all

import (
	_ "github.com/Sha0S/AOI-uploader/internal/storage/mssql"
	_ "github.com/Sha0S/AOI-uploader/internal/storage/postgres"
	_ "github.com/Sha0S/AOI-uploader/internal/storage/sqlite"
)
