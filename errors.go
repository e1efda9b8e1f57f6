package main

import "errors"

// errNoContent is returned when a content type has never been written.
var errNoContent = errors.New("no content snapshot exists")

// errVersionConflict is returned when a concurrent writer already claimed
// the version number this write tried to append.
var errVersionConflict = errors.New("snapshot version already exists")

// errProjectNotFound is returned when a webhook references a project id
// that is not present in the projects content.
var errProjectNotFound = errors.New("project not found")
