package myjwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	UserId int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Signer 持有签名密钥；令牌签发属于账号体系，这里仅用于校验与测试
type Signer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

func NewSigner(key string, issuer string, expireHours int) *Signer {
	if expireHours <= 0 {
		expireHours = 24
	}
	return &Signer{key: []byte(key), issuer: issuer, ttl: time.Duration(expireHours) * time.Hour}
}

func (s *Signer) GenerateToken(userID int64, email string, role string) (string, error) {
	if len(s.key) == 0 {
		return "", errors.New("jwt key is empty")
	}
	now := time.Now()
	claims := CustomClaims{
		UserId: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

func (s *Signer) ParseToken(tokenString string) (*CustomClaims, error) {
	if len(s.key) == 0 {
		return nil, errors.New("jwt key is empty")
	}
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserId <= 0 {
		return nil, errors.New("token missing user_id")
	}
	return claims, nil
}
