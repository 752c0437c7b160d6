//go:build !unix

package core

import (
	"net"
	"syscall"
)

func listenControl(network, address string, rc syscall.RawConn) error {
	return nil
}

func tuneConn(c net.Conn) {
	if tc, ok := c.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
		tc.SetKeepAlive(true)
	}
}
