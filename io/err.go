package io

import (
	"errors"

	"github.com/ezrec/arch242/translate"
)

var f = translate.From

var (
	// Device errors
	ErrRomEmpty = errors.New(f("rom empty"))
)
