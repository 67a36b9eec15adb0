package main

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/grecko-app/grecko/apps/api/echo"
)

const tokenTTL = 24 * time.Hour

// printToken signs a token the API accepts, for local development without the identity provider.
func (cli *commandLine) printToken(userID, email string) error {
	now := time.Now()
	claims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Audience:  cli.conf.Auth.JWTAudience,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenTTL).Unix(),
		},
		Email: email,
		Role:  "authenticated",
	}
	token, err := echoapi.GenerateToken(claims, cli.conf.Auth.JWTSecret)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
