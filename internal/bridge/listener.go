package bridge

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/netutil"

	"github.com/evfabric/evfabric/internal/dispatcher"
)

// maxBridgeConns bounds concurrently connected bridge clients per socket.
const maxBridgeConns = 256

// Serve binds every address in sockets and accepts Bridge client
// connections on each, spawning one session per connection. It returns
// once every listener is bound; accept loops run in the background until
// ctx is cancelled.
func Serve(ctx context.Context, sockets []string, disp dispatcher.Producer, log Logger) error {
	for _, addr := range sockets {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("bridge: listen %s: %w", addr, err)
		}
		ln = netutil.LimitListener(ln, maxBridgeConns)

		go func(ln net.Listener) {
			<-ctx.Done()
			ln.Close()
		}(ln)

		go acceptLoop(ctx, ln, disp, log)
		log.Infof("bridge listening on %s", addr)
	}
	return nil
}

func acceptLoop(ctx context.Context, ln net.Listener, disp dispatcher.Producer, log Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				return
			}
		}
		go ServeConn(ctx, conn, disp, log)
	}
}
