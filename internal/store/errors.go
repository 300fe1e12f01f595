package store

import "errors"

// ErrNotFound is returned when the requested record does not exist.
// Callers check it with errors.Is to distinguish missing records from
// other database errors:
//
//	person, err := stores.Persons.GetByID(ctx, id)
//	if errors.Is(err, store.ErrNotFound) {
//	    handle not found
//	}
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an insert violates a unique constraint,
// for example two brokers claiming the same slug outside an upsert.
var ErrConflict = errors.New("record already exists")
