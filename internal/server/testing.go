package server

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Transport serves requests in-process through the Fiber app, without a
// socket. It satisfies api.Doer.
type Transport struct {
	app *fiber.App
}

// Do implements api.Doer.
func (t Transport) Do(req *http.Request) (*http.Response, error) {
	return t.app.Test(req, -1)
}

// Transport returns an in-process client transport for tests and tooling.
func (s *Server) Transport() Transport {
	return Transport{app: s.app}
}
