package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/yungbote/caresupport-backend/internal/services"
)

type APIError struct {
  Message     string	`json:"message"`
  Code	      string	`json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error	      APIError	`json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognized is treated as a store failure.
func RespondServiceError(c *gin.Context, err error) {
  switch {
  case errors.Is(err, services.ErrValidation):
    RespondError(c, http.StatusBadRequest, "validation_error", err)
  case errors.Is(err, services.ErrNotFound):
    RespondError(c, http.StatusNotFound, "not_found", err)
  case errors.Is(err, services.ErrDelivery):
    RespondError(c, http.StatusBadGateway, "delivery_failed", err)
  default:
    RespondError(c, http.StatusInternalServerError, "persistence_error", err)
  }
}
