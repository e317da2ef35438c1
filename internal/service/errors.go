package service

import "errors"

var (
	ErrInvalidID     = errors.New("invalid id")
	ErrNoSession     = errors.New("no play session started")
	ErrBadPhase      = errors.New("bad phase")
	ErrWrongQuestion = errors.New("question is not the one being asked")
)
