// package repositories provides the sqlite persistence layer.
//
// The only persisted entity is a search match: a resolved (title, artist) to
// track URI mapping, cached so repeated tracks and repeated runs skip the
// remote search endpoint.
package repositories
