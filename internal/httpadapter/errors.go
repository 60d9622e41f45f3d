package httpadapter

import "errors"

var errBodyTooLarge = errors.New("request body exceeds 6MB")
