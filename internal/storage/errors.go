package storage

import "github.com/lexohub/lexohub/internal/domain"

var (
	// ErrNotFound marks a missing archive object.
	ErrNotFound = &domain.Error{Code: domain.ENOTFOUND, Message: "archived document not found"}

	// ErrUnknownProvider marks an unrecognized backend name in config.
	ErrUnknownProvider = &domain.Error{Code: domain.EINVALID, Message: "unknown storage provider"}
)
