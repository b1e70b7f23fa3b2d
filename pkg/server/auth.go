package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/cogenplan/cogenplan/pkg/log"
)

// maxBodyBytes bounds request bodies. Scenarios are small; demand data is
// never uploaded.
const maxBodyBytes = 1 << 20

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))

		// extract buildingID
		var buildingID string
		if r.Method == http.MethodGet {
			buildingID = r.URL.Query().Get("buildingID")
		} else {
			var bodyBytes []byte
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
				var err error
				bodyBytes, err = io.ReadAll(r.Body)
				if err != nil {
					log.Ctx(ctx).ErrorContext(ctx, "failed to read request body", slog.Any("error", err))
					// since we failed to read, don't return JSON error
					http.Error(w, "invalid request", http.StatusBadRequest)
					return
				}
				// restore body for next handler
				r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			}

			if len(bodyBytes) > 0 {
				var justBuildingID struct {
					BuildingID string `json:"buildingID"`
				}
				if err := json.Unmarshal(bodyBytes, &justBuildingID); err != nil {
					log.Ctx(ctx).ErrorContext(ctx, "failed to unmarshal request body", slog.Any("error", err))
					http.Error(w, "invalid request", http.StatusBadRequest)
					return
				}
				buildingID = justBuildingID.BuildingID
			}
		}

		var email string
		if !s.bypassAuth {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Ctx(ctx).WarnContext(ctx, "missing auth header")
				writeJSONError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				log.Ctx(ctx).WarnContext(ctx, "invalid auth header")
				writeJSONError(w, "invalid auth header", http.StatusBadRequest)
				return
			}
			var subject string
			var err error
			email, subject, err = s.authenticateToken(ctx, token)
			if err != nil {
				log.Ctx(ctx).WarnContext(ctx, "auth token validation failed", slog.Any("error", err))
				writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
				return
			}
			if len(s.adminEmails) > 0 && !slices.Contains(s.adminEmails, email) {
				log.Ctx(ctx).WarnContext(ctx, "email not allowed", slog.String("email", email), slog.String("subject", subject))
				writeJSONError(w, "forbidden", http.StatusForbidden)
				return
			}
			ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("authSubject", subject)))
		}

		if buildingID == "" {
			if !s.singleBuilding {
				log.Ctx(ctx).WarnContext(ctx, "buildingID required")
				writeJSONError(w, "buildingID required", http.StatusBadRequest)
				return
			}
			buildingID = DefaultBuildingID
		}
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("buildingID", buildingID)))

		log.Ctx(ctx).DebugContext(ctx, "authenticated request", slog.String("email", email))

		ctx = context.WithValue(ctx, emailContextKey, email)
		ctx = context.WithValue(ctx, buildingIDContextKey, buildingID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticateToken returns the email and subject of the first verifier
// that accepts token.
func (s *Server) authenticateToken(ctx context.Context, token string) (string, string, error) {
	var errs []error

	for providerName, verifier := range s.oidcVerifiers {
		idToken, err := verifier(ctx, token)
		if err == nil {
			var claims struct {
				Email         string `json:"email"`
				EmailVerified *bool  `json:"email_verified"`
			}
			err = idToken.Claims(&claims)
			if err == nil && claims.EmailVerified != nil && !*claims.EmailVerified {
				err = errors.New("email not verified")
			}
			if err == nil {
				return claims.Email, idToken.Subject, nil
			}
		}
		errs = append(errs, fmt.Errorf("%s verifier failed: %w", providerName, err))
	}

	if len(errs) > 0 {
		return "", "", errors.Join(errs...)
	}
	return "", "", errors.New("no valid audiences configured or token invalid")
}
