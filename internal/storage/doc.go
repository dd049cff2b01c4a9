// Package storage persists movie documents.
//
// MongoStore keeps them in a MongoDB "movies" collection. FileStore keeps them
// in a JSON file under the data directory and is used when no MongoDB URI is
// configured. Both satisfy Store; Open picks one from Options.
package storage
