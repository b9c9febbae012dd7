package shades

import (
	"net"
	"time"
)

const dialTimeout = 10 * time.Second

// connectTCP dials a network serial bridge (e.g. ser2net at "192.168.1.30:4001")
func connectTCP(address string) (net.Conn, error) {
	return net.DialTimeout("tcp", address, dialTimeout)
}
