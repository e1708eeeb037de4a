package controllers

import (
	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/session"
)

type SessionService interface {
	CreateSession() string
	DestroySession(id string) error
	SetOrigin(id string, p geo.Point) error
	SetDestination(id string, p geo.Point) error
	MapClick(id string, p geo.Point) error
	Routes(id string) ([]session.RouteView, error)
	Closures(id string) ([]session.ClosureView, error)
	ToggleRoute(id string, index int) error
	DeleteRoute(id string, index int) error
	DeleteClosure(id string, index int) error
	SelectBasemap(id, name string) error
	ClosureAt(id string, p geo.Point) (int, error)
	State(id string) (string, error)
	Subscribe(id string, h session.Handler) (func(), error)
}
