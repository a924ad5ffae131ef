// Package files finds pricing exports on disk and loads them into raw datasets.
//
// Discovery lists the XLSX and CSV files of a directory. Loader reads them
// concurrently with a bounded errgroup and returns the datasets in discovery
// order, so ingestion output does not depend on scheduling.
//
// Example usage:
//
//	loader := files.NewLoader(logger, 4)
//	datasets, err := loader.LoadDir(ctx, "data")
//	if errors.Is(err, files.ErrNoSources) {
//	    // empty directory
//	}
package files
