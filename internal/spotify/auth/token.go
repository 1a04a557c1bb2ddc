package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	apperrors "github.com/tessro/tempo/internal/errors"
)

// tokenResult is what the token endpoint gave us, before persistence.
type tokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	Scopes       []string // nil when the provider omitted the field
}

// exchangeCode trades an authorization code and verifier for tokens.
func exchangeCode(ctx context.Context, conf *oauth2.Config, client *http.Client, code, verifier string) (*tokenResult, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, exchangeError(err)
	}
	return convertToken(tok)
}

// refreshToken renews an access token. The provider may omit a new refresh
// token, in which case the old one is kept.
func refreshToken(ctx context.Context, conf *oauth2.Config, client *http.Client, refresh string) (*tokenResult, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		return nil, exchangeError(err)
	}
	result, err := convertToken(tok)
	if err != nil {
		return nil, err
	}
	if result.RefreshToken == "" {
		result.RefreshToken = refresh
	}
	return result, nil
}

func convertToken(tok *oauth2.Token) (*tokenResult, error) {
	result := &tokenResult{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}

	switch {
	case tok.ExpiresIn > 0:
		result.ExpiresIn = time.Duration(tok.ExpiresIn) * time.Second
	case !tok.Expiry.IsZero():
		result.ExpiresIn = time.Until(tok.Expiry)
	default:
		return nil, &apperrors.ExchangeError{Message: "token response missing expires_in"}
	}

	if scope, ok := tok.Extra("scope").(string); ok {
		result.Scopes = strings.Fields(scope)
	}
	return result, nil
}

// exchangeError maps x/oauth2 failures onto the exchange error type, keeping
// the provider's description verbatim.
func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		e := &apperrors.ExchangeError{Code: re.ErrorCode, Message: re.ErrorDescription}
		if e.Code == "" && e.Message == "" && re.Response != nil {
			e.Message = fmt.Sprintf("unexpected status code: %d", re.Response.StatusCode)
		}
		return e
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", apperrors.ErrExchangeFailed, err)
	}
	return &apperrors.ExchangeError{Message: err.Error()}
}
