package token

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/EgorLis/files-manager/internal/domain"
)

// Parser разбирает JWT, выпущенные внешней системой идентификации.
// Здесь токены не выпускаются и не отзываются.
type Parser struct {
	secret []byte
	issuer string
}

func New(secret, issuer string) *Parser {
	return &Parser{secret: []byte(secret), issuer: issuer}
}

// внутренний тип для парсинга с jwt.RegisteredClaims
type jwtClaims struct {
	UserID uuid.UUID `json:"uid"`
	Roles  []string  `json:"roles"`
	jwt.RegisteredClaims
}

// Ensure: Parser implements domain.TokenParser
var _ domain.TokenParser = (*Parser)(nil)

// Parse валидирует подпись/сроки и возвращает субъекта с его ролями
func (p *Parser) Parse(_ context.Context, raw string) (domain.Principal, error) {
	var out jwtClaims
	tkn, err := jwt.ParseWithClaims(raw, &out, func(token *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
	)
	if err != nil {
		return domain.Principal{}, err
	}
	if !tkn.Valid {
		return domain.Principal{}, jwt.ErrTokenInvalidClaims
	}

	return domain.Principal{ID: out.UserID, Roles: out.Roles}, nil
}
