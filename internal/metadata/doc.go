// Package metadata looks up movie details for a "Title | link" request.
//
// Providers query TMDb, OMDb, or the OpenGraph tags of the linked page. A Chain
// tries them in order and a Cache keeps answers (including misses) for a day so
// repeated requests for the same title do not hit the remote APIs again.
//
// Example usage:
//
//	lookup := metadata.Chain{
//	    metadata.NewCache(metadata.Chain{metadata.NewTMDb(tmdbKey, nil), metadata.NewOMDb(omdbKey, nil)}, 0),
//	    metadata.NewPage(nil),
//	}
//	m, err := metadata.Resolve(ctx, lookup, req)
package metadata
