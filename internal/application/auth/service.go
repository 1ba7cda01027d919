// Package auth logs AMY administrators in and tracks their sessions in
// Redis.
package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
)

const sessionTTL = 24 * time.Hour

// PersonFinder is the part of the domain repository login needs.
type PersonFinder interface {
	GetPerson(ctx context.Context, id int64) (*entity.Person, error)
	GetPersonByEmail(ctx context.Context, email string) (*entity.Person, error)
}

type Service struct {
	Persons PersonFinder
	JWT     *helpers.JWTManager
	Redis   *redis.Client
	Logger  *logrus.Logger
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// Session is what the auth middleware puts in the request context.
type Session struct {
	PersonID int64
	Email    string
	Name     string
}

func NewService(persons PersonFinder, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *Service {
	return &Service{Persons: persons, JWT: jwt, Redis: rdb, Logger: logger}
}

func sessionKey(personID string) string { return "amy:session:" + personID }

// Authenticate checks the password of an active administrator.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.Person, error) {
	p, err := s.Persons.GetPersonByEmail(ctx, strings.TrimSpace(email))
	if err != nil || p == nil {
		return nil, ErrInvalidCredentials
	}
	if !p.IsActive || !p.IsAdmin || p.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(p.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*entity.Person, TokenPair, error) {
	p, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.issue(ctx, p)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return p, pair, nil
}

// issue creates a new session id and tokens bound to it.
func (s *Service) issue(ctx context.Context, p *entity.Person) (TokenPair, error) {
	pid := strconv.FormatInt(p.ID, 10)
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(pid, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(pid, sid)
	if err != nil {
		return TokenPair{}, err
	}

	key := sessionKey(pid)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"person_id":  pid,
		"email":      p.Email,
		"name":       p.FullName(),
		"sid":        sid,
		"created_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the session id and both tokens.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*entity.Person, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if _, err := s.session(ctx, claims); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(claims.PersonID, 10, 64)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	p, err := s.Persons.GetPerson(ctx, id)
	if err != nil || !p.IsActive || !p.IsAdmin {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.issue(ctx, p)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return p, pair, nil
}

func (s *Service) Logout(ctx context.Context, personID int64) error {
	return s.Redis.Del(ctx, sessionKey(strconv.FormatInt(personID, 10))).Err()
}

// Authorize validates an access token against the live session.
func (s *Service) Authorize(ctx context.Context, accessToken string) (*Session, error) {
	claims, err := s.JWT.ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	return s.session(ctx, claims)
}

func (s *Service) session(ctx context.Context, claims *helpers.Claims) (*Session, error) {
	data, err := s.Redis.HGetAll(ctx, sessionKey(claims.PersonID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data["sid"] != claims.SessionID {
		return nil, ErrSessionNotFound
	}
	id, err := strconv.ParseInt(data["person_id"], 10, 64)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return &Session{PersonID: id, Email: data["email"], Name: data["name"]}, nil
}
