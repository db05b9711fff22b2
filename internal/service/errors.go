package service

import "errors"

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrInvalidTransition = errors.New("post status does not allow this action")
	ErrInvalidInput      = errors.New("invalid input")
	ErrMediaNotFound     = errors.New("media not found")
	ErrUnsupportedMedia  = errors.New("unsupported media type")
)
