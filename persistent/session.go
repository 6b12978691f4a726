package persistent

import (
	"context"
	crand "crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/djportal/accounts"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/buntdb"
)

const sessionTTL = 30 * 24 * time.Hour // 30 days

type Session struct {
	Id             string    `json:"id"`
	UserId         int64     `json:"userId"`
	Token          string    `json:"token"`
	Ip             string    `json:"ip"`
	UserAgent      string    `json:"userAgent"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

func (s Session) ToDomain() accounts.Session {
	return accounts.Session{
		Id:             s.Id,
		UserId:         accounts.UserId(s.UserId),
		Token:          s.Token,
		Ip:             s.Ip,
		UserAgent:      s.UserAgent,
		LastAccessedAt: s.LastAccessedAt,
		ExpiresAt:      s.ExpiresAt,
	}
}

type SessionStore struct {
	Buntdb *buntdb.DB
}

var _ accounts.SessionStore = (*SessionStore)(nil)

func (s *SessionStore) CreateIndexes() error {
	return s.Buntdb.CreateIndex("sessions", "session:*", buntdb.IndexString)
}

func (s *SessionStore) RegisterNew(ctx context.Context, userId accounts.UserId, ip string, userAgent string) (accounts.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return accounts.Session{}, fmt.Errorf("generate token: %w", err)
	}
	now := time.Now().UTC()
	session := Session{
		Id:             uuid.New().String(),
		UserId:         int64(userId),
		Token:          token,
		Ip:             ip,
		UserAgent:      userAgent,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(sessionTTL),
	}
	serializedSession, err := json.Marshal(&session)
	if err != nil {
		return accounts.Session{}, fmt.Errorf("session serialize: %w", err)
	}

	err = s.Buntdb.Update(func(tx *buntdb.Tx) error {
		expireOptions := &buntdb.SetOptions{Expires: true, TTL: sessionTTL}

		_, replaced, err := tx.Set("session_by_id:"+session.Id, session.Token, expireOptions)
		if err != nil {
			return fmt.Errorf("set map session id to auth token: %w", err)
		}
		if replaced {
			return fmt.Errorf("rarest uuid collision '%s' (not possible)", session.Id)
		}

		_, _, err = tx.Set("session:"+session.Token, string(serializedSession), expireOptions)
		if err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		return nil
	})
	if err != nil {
		return accounts.Session{}, fmt.Errorf("bunt update: %w", err)
	}

	logrus.
		WithField("user_id", userId).
		WithField("session_id", session.Id).
		WithField("ip", ip).
		Infoln("Session created.")
	return session.ToDomain(), nil
}

func (s *SessionStore) ByToken(token string) (accounts.Session, error) {
	var session Session
	err := s.Buntdb.View(func(tx *buntdb.Tx) error {
		serializedSession, err := tx.Get("session:" + token)
		if err != nil {
			return fmt.Errorf("get serialized session: %w", err)
		}
		if err := json.Unmarshal([]byte(serializedSession), &session); err != nil {
			return fmt.Errorf("deserialize session: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return accounts.Session{}, accounts.ErrSessionNotFound
		}
		return accounts.Session{}, fmt.Errorf("buntdb view: %w", err)
	}
	return session.ToDomain(), nil
}

func (s *SessionStore) AcquireAndRefresh(ctx context.Context, token string, ip string, userAgent string) (accounts.Session, error) {
	var previousSession Session
	var session Session
	err := s.Buntdb.Update(func(tx *buntdb.Tx) error {
		oldSerializedSession, err := tx.Get("session:" + token)
		if err != nil {
			return fmt.Errorf("get serialized session: %w", err)
		}
		err = json.Unmarshal([]byte(oldSerializedSession), &previousSession)
		if err != nil {
			return fmt.Errorf("deserialize session: %w", err)
		}

		// copy session
		session = previousSession
		session.Ip = ip
		session.UserAgent = userAgent
		session.LastAccessedAt = time.Now().UTC()
		session.ExpiresAt = session.LastAccessedAt.Add(sessionTTL)
		serializedSession, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("serialize session: %w", err)
		}

		expireOptions := &buntdb.SetOptions{Expires: true, TTL: sessionTTL}
		_, _, err = tx.Set("session:"+token, string(serializedSession), expireOptions)
		if err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		_, _, err = tx.Set("session_by_id:"+session.Id, token, expireOptions)
		if err != nil {
			return fmt.Errorf("store session id: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return accounts.Session{}, accounts.ErrSessionNotFound
		}
		return accounts.Session{}, fmt.Errorf("refresh session in buntdb: %w", err)
	}

	if previousSession.Ip != session.Ip || previousSession.UserAgent != session.UserAgent {
		logrus.
			WithField("user_id", session.UserId).
			WithField("session_id", session.Id).
			WithField("previous_ip", previousSession.Ip).
			WithField("new_ip", session.Ip).
			WithField("previous_user_agent", previousSession.UserAgent).
			WithField("new_user_agent", session.UserAgent).
			Infoln("Session client changed.")
	}
	return session.ToDomain(), nil
}

func (s *SessionStore) InvalidateByAuthToken(authToken string) error {
	err := s.Buntdb.Update(func(tx *buntdb.Tx) error {
		serializedSession, err := tx.Delete("session:" + authToken)
		if err != nil {
			return fmt.Errorf("delete session key: %w", err)
		}
		var session Session
		err = json.Unmarshal([]byte(serializedSession), &session)
		if err != nil {
			return fmt.Errorf("deserialize deleted session: %w", err)
		}
		_, err = tx.Delete("session_by_id:" + session.Id)
		if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
			return fmt.Errorf("delete session id key: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return accounts.ErrSessionNotFound
		}
		return fmt.Errorf("bunt update: %w", err)
	}
	return nil
}

func generateSessionToken() (string, error) {
	const tokenBytes = 60
	rawToken := make([]byte, tokenBytes)
	// crypto/rand - getentropy(2)
	bytesRead, err := crand.Read(rawToken)
	if err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}
	if bytesRead != tokenBytes {
		return "", fmt.Errorf("bytes read %d / required %d", bytesRead, tokenBytes)
	}
	dirtyToken := base64.StdEncoding.EncodeToString(rawToken)

	// replace all ":" with "_" so a token can never extend into another key
	// namespace such as "session:token:suffix"
	token := strings.Replace(dirtyToken, ":", "_", -1)
	return token, nil
}
