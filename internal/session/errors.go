package session

import "errors"

var (
	ErrClipExpired = errors.New("video frames expired, upload the clip again")
	ErrEmptyQuery  = errors.New("query is empty")
)
