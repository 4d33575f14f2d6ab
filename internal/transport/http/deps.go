package http

import (
	"github.com/go-verify-api/internal/application/verification"
	jwtinfra "github.com/go-verify-api/internal/infrastructure/jwt"
	"github.com/go-verify-api/internal/pkg/clock"
)

// Deps holds the wired infrastructure the router needs. Fields are the
// application-level interfaces so tests can drop in fakes.
type Deps struct {
	Store       verification.Store
	Cache       verification.Cache
	PushGateway verification.PushGateway
	SMSGateway  verification.SMSGateway
	JWTProvider *jwtinfra.Provider
	Clock       clock.Clock
}
