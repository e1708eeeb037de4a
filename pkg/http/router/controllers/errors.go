package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/detour-routing/detour/pkg/util"
	"go.uber.org/zap"
)

type envelope map[string]interface{}

func (api *sessionAPI) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

func (api *sessionAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	resp := errorResponse{}
	resp.Error.Code = http.StatusText(status)
	resp.Error.Message = fmt.Sprintf("%v", message)

	js, err := json.Marshal(resp)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

func (api *sessionAPI) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (api *sessionAPI) NotFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusNotFound, err.Error())
}

func (api *sessionAPI) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.log.Error("internal server error", zap.Error(err), zap.String("path", r.URL.Path))
	api.errorResponse(w, r, http.StatusInternalServerError, util.MessageInternalServerError)
}

// getStatusCode maps a wrapped sentinel onto the response status.
func (api *sessionAPI) getStatusCode(w http.ResponseWriter, r *http.Request, err error) {
	switch code := util.ErrorCode(err); {
	case errors.Is(code, util.ErrNotFound):
		api.NotFoundResponse(w, r, err)
	case errors.Is(code, util.ErrBadParamInput), errors.Is(code, util.ErrIndexOutOfRange):
		api.BadRequestResponse(w, r, err)
	case errors.Is(code, util.ErrRecomputation):
		api.errorResponse(w, r, http.StatusBadGateway, err.Error())
	default:
		api.ServerErrorResponse(w, r, err)
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := errors.New(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}
