package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"

	"github.com/detour-routing/detour/pkg/geo"
	helper "github.com/detour-routing/detour/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type sessionAPI struct {
	sessionService SessionService
	log            *zap.Logger
}

func New(sessionService SessionService, log *zap.Logger) *sessionAPI {
	return &sessionAPI{
		sessionService: sessionService,
		log:            log,
	}
}

func (api *sessionAPI) Routes(group *helper.RouteGroup) {
	group.POST("/sessions", api.createSession)
	group.DELETE("/sessions/:id", api.destroySession)
	group.GET("/sessions/:id", api.sessionState)

	group.POST("/sessions/:id/origin", api.setOrigin)
	group.POST("/sessions/:id/destination", api.setDestination)
	group.POST("/sessions/:id/click", api.mapClick)
	group.POST("/sessions/:id/basemap", api.selectBasemap)

	group.GET("/sessions/:id/routes", api.listRoutes)
	group.POST("/sessions/:id/routes/:index/toggle", api.toggleRoute)
	group.DELETE("/sessions/:id/routes/:index", api.deleteRoute)

	group.GET("/sessions/:id/closures", api.listClosures)
	group.GET("/sessions/:id/closures/at", api.closureAt)
	group.DELETE("/sessions/:id/closures/:index", api.deleteClosure)
}

func (api *sessionAPI) validateStruct(w http.ResponseWriter, r *http.Request, request interface{}) bool {
	validate := validator.New()
	if err := validate.Struct(request); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		api.BadRequestResponse(w, r, fmt.Errorf("validation error: %v", vvString))
		return false
	}
	return true
}

func (api *sessionAPI) decodePoint(w http.ResponseWriter, r *http.Request) (geo.Point, bool) {
	var request pointRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return geo.Point{}, false
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return geo.Point{}, false
	}
	if !api.validateStruct(w, r, request) {
		return geo.Point{}, false
	}
	return request.toPoint(), true
}

func indexParam(p httprouter.Params) (int, error) {
	idx, err := strconv.Atoi(p.ByName("index"))
	if err != nil {
		return 0, errors.New("index must be a valid integer")
	}
	return idx, nil
}

func (api *sessionAPI) createSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			api.BadRequestResponse(w, r, err)
			return
		}
		if !api.validateStruct(w, r, request) {
			return
		}
	}

	id := api.sessionService.CreateSession()
	if request.Origin != nil {
		if err := api.sessionService.SetOrigin(id, request.Origin.toPoint()); err != nil {
			api.getStatusCode(w, r, err)
			return
		}
	}
	if request.Destination != nil {
		if err := api.sessionService.SetDestination(id, request.Destination.toPoint()); err != nil {
			api.getStatusCode(w, r, err)
			return
		}
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusCreated, envelope{"data": createSessionResponse{ID: id}}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sessionAPI) destroySession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if err := api.sessionService.DestroySession(p.ByName("id")); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *sessionAPI) sessionState(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	state, err := api.sessionService.State(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": stateResponse{State: state}}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sessionAPI) setOrigin(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	point, ok := api.decodePoint(w, r)
	if !ok {
		return
	}
	if err := api.sessionService.SetOrigin(p.ByName("id"), point); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (api *sessionAPI) setDestination(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	point, ok := api.decodePoint(w, r)
	if !ok {
		return
	}
	if err := api.sessionService.SetDestination(p.ByName("id"), point); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (api *sessionAPI) mapClick(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	point, ok := api.decodePoint(w, r)
	if !ok {
		return
	}
	if err := api.sessionService.MapClick(p.ByName("id"), point); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (api *sessionAPI) selectBasemap(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request basemapRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if !api.validateStruct(w, r, request) {
		return
	}
	if err := api.sessionService.SelectBasemap(p.ByName("id"), request.Name); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (api *sessionAPI) listRoutes(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	routes, err := api.sessionService.Routes(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": routeListResponse{Routes: routes}}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sessionAPI) toggleRoute(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	idx, err := indexParam(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.sessionService.ToggleRoute(p.ByName("id"), idx); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (api *sessionAPI) deleteRoute(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	idx, err := indexParam(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.sessionService.DeleteRoute(p.ByName("id"), idx); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *sessionAPI) listClosures(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	closures, err := api.sessionService.Closures(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": closureListResponse{Closures: closures}}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sessionAPI) closureAt(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	query := r.URL.Query()

	lng, err := strconv.ParseFloat(query.Get("lng"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("lng is required and must be a valid float"))
		return
	}
	lat, err := strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("lat is required and must be a valid float"))
		return
	}

	idx, err := api.sessionService.ClosureAt(p.ByName("id"), geo.NewPoint(lng, lat))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": closureAtResponse{Index: idx}}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sessionAPI) deleteClosure(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	idx, err := indexParam(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.sessionService.DeleteClosure(p.ByName("id"), idx); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
