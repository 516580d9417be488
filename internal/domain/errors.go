package domain

import "errors"

var (
	// ErrInvalidInput — документ не декодируется или не содержит ни одного источника сообщений.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoData — документ корректен, но после нормализации не осталось сообщений.
	ErrNoData = errors.New("no data")
)
