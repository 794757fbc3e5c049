// Package storage writes downloaded result documents into the output
// directory.
//
// Files are written to a temporary name and renamed into place, so an
// interrupted crawl never leaves a truncated XML behind for the converter to
// trip over. The Manager indexes the .xml, .pdf and .csv files already in the
// directory on start-up; the crawler uses that index to warn when an order
// identifier collides with a file from an earlier run.
//
//	store, err := storage.NewManager("downloads/xml_results")
//	if err != nil {
//	    return err
//	}
//	path, err := store.SaveArtifact("402337694L.xml", data)
package storage
