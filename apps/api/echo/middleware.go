package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/grecko-app/grecko/core/session"
)

const contextSessionKey = "session"

// sessionMiddleware loads the caller's open session into the context or responds 401.
func sessionMiddleware(svc session.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			userID, err := getContextUserID(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user ID")
			}
			sess, err := svc.Get(userID)
			if err != nil {
				if err == session.ErrNoSession {
					return errNoSession
				}
				return errors.Wrap(err, "getting session")
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func getContextSession(ctx echo.Context) (*session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(*session.Session); ok {
		return sess, nil
	}
	return nil, errNoSession
}
