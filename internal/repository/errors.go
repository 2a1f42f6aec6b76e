package repository

import "errors"

// ErrNotFound is a repository-specific sentinel error. It is returned when a
// session does not exist for the given owner.
//
// The service layer translates it into `app_errors.ErrNotFound`, which keeps the
// business logic independent of the driver's own "no rows" errors
// (`sql.ErrNoRows`, `redis.Nil`, `mongo.ErrNoDocuments`).
var ErrNotFound = errors.New("repository: not found")
