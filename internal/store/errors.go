package store

import "errors"

// Sentinel errors returned by shard operations. The command package
// translates these into RESP error replies with the matching prefix;
// keeping them here (rather than in command) lets store stay codec-free.
var (
	ErrWrongType  = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrNotInteger = errors.New("ERR value is not an integer or out of range")
	ErrNotFloat   = errors.New("ERR value is not a valid float")
	ErrSyntax     = errors.New("ERR syntax error")
	ErrNoSuchKey  = errors.New("ERR no such key")
	ErrOverflow   = errors.New("ERR increment or decrement would overflow")
)
