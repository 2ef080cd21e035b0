package utils

import "io"

// Close discards the close error. For response bodies and test
// connections where nothing useful can be done with it.
func Close(c io.Closer) {
	_ = c.Close()
}
