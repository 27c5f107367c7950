package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
)

type JwtCustomClaim struct {
	ClientId string `json:"clientId"`
	jwt.StandardClaims
}

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "Suggestions-Secret"
	}
	return secret
}

const defaultTokenHourLifespan = 24

func tokenLifespanHours() int {
	if hours, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN")); err == nil && hours > 0 {
		return hours
	}
	return defaultTokenHourLifespan
}

func JwtGenerate(clientId string) (string, error) {
	token_lifespan := tokenLifespanHours()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ClientId: clientId,
		StandardClaims: jwt.StandardClaims{
			Subject:   clientId,
			ExpiresAt: time.Now().Add(time.Hour * time.Duration(token_lifespan)).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	token, err := t.SignedString(jwtSecret)
	if err != nil {
		return "", err
	}

	return token, nil
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret, nil
	})
}
