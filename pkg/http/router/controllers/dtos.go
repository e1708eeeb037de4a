package controllers

import (
	"github.com/detour-routing/detour/pkg/geo"
	"github.com/detour-routing/detour/pkg/session"
)

type pointRequest struct {
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
}

func (p pointRequest) toPoint() geo.Point {
	return geo.NewPoint(p.Lng, p.Lat)
}

type createSessionRequest struct {
	Origin      *pointRequest `json:"origin,omitempty"`
	Destination *pointRequest `json:"destination,omitempty"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

type basemapRequest struct {
	Name string `json:"name" validate:"required"`
}

type stateResponse struct {
	State string `json:"state"`
}

type routeListResponse struct {
	Routes []session.RouteView `json:"routes"`
}

type closureListResponse struct {
	Closures []session.ClosureView `json:"closures"`
}

type closureAtResponse struct {
	Index int `json:"index"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
