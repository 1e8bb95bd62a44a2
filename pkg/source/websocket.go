// ABOUTME: WebSocket byte source
// ABOUTME: Concatenates binary message payloads into a continuous stream
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsSource reads binary messages from a websocket as one byte stream.
type wsSource struct {
	conn      *websocket.Conn
	current   io.Reader
	closeOnce sync.Once
}

// OpenWebSocket dials url and returns the concatenated binary messages.
// A normal close from the server ends the stream with io.EOF.
func OpenWebSocket(ctx context.Context, url string, opts Options) (io.ReadCloser, error) {
	header := http.Header{}
	if opts.UserAgent != "" {
		header.Set("User-Agent", opts.UserAgent)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (%s): %w", resp.Status, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return &wsSource{conn: conn}, nil
}

func (s *wsSource) Read(p []byte) (int, error) {
	for {
		if s.current != nil {
			n, err := s.current.Read(p)
			if err == io.EOF {
				s.current = nil
				if n > 0 {
					return n, nil
				}
				continue
			}
			return n, err
		}

		msgType, r, err := s.conn.NextReader()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return 0, fmt.Errorf("websocket closed: %w", err)
			}
			return 0, err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		s.current = r
	}
}

func (s *wsSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}
