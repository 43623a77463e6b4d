package server

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/harrisonrobin/taskboard/pkg/derive"
)

const writeTimeout = 5 * time.Second

// streamViews sends the current view on connect and every recomputed view
// after that. Slow clients only ever see the latest view.
func (s *Server) streamViews(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return nil
	}
	defer conn.CloseNow()

	// Client messages are ignored; CloseRead cancels ctx when the peer goes away.
	ctx := conn.CloseRead(c.Request().Context())

	updates := make(chan derive.View, 1)
	unsubscribe := s.sync.Subscribe(func(v derive.View) {
		select {
		case updates <- v:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- v:
			default:
			}
		}
	})
	defer unsubscribe()

	log := s.log.WithField("remote", c.RealIP())
	log.Debug("view subscriber connected")

	if err := s.send(ctx, conn, s.currentView()); err != nil {
		log.WithError(err).Debug("initial view not delivered")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			log.Debug("view subscriber gone")
			return nil
		case v := <-updates:
			resp := s.currentView()
			resp.View = v
			if err := s.send(ctx, conn, resp); err != nil {
				log.WithError(err).Debug("dropping view subscriber")
				return nil
			}
		}
	}
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, resp viewResponse) error {
	data, err := sonic.Marshal(resp)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
