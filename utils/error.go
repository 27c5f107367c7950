package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorInvalidTransition is returned when a suggestion status change is not in
// the allowed transition table. The record is left unchanged.
var ErrorInvalidTransition = errors.New("invalid status transition")

// ErrorMalformedIdentity is returned when a caller-supplied client or product
// identity does not match the accepted identity format.
var ErrorMalformedIdentity = errors.New("malformed identity")
